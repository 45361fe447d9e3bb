// Package config loads the daemon's configuration: defaults populated via
// koanf's struct provider, then overlaid with an optional YAML file on
// disk, same two-step load as the teacher's cmd/andorhttp2 and
// cmd/multiserver entrypoints.
package config

import (
	"io"
	"log"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	yml "gopkg.in/yaml.v2"
)

// FileName is the default config file name thermod looks for in its
// working directory.
const FileName = "thermod.yml"

var k = koanf.New(".")

// ThermometerConfig selects and parametrizes one Thermometer variant.
// Only the fields relevant to Variant need be populated.
type ThermometerConfig struct {
	// Variant is one of "script", "filesystem", "analog".
	Variant string `yaml:"Variant"`

	// Script fields.
	ScriptPath    string   `yaml:"ScriptPath"`
	ScriptArgs    []string `yaml:"ScriptArgs"`
	ScriptTimeout float64  `yaml:"ScriptTimeout"`

	// Filesystem (1-wire) fields.
	DevicePaths []string `yaml:"DevicePaths"`

	// Analog fields.
	SerialDevice string  `yaml:"SerialDevice"`
	Channels     []int   `yaml:"Channels"`
	VRef         float64 `yaml:"VRef"`
	Resolution   uint    `yaml:"Resolution"`

	// Decorators, all optional.
	OutlierThreshold float64 `yaml:"OutlierThreshold"`
	SimilarityWindow int     `yaml:"SimilarityWindow"`
	SimilarityThresh float64 `yaml:"SimilarityThreshold"`
	AveragingMinutes float64 `yaml:"AveragingMinutes"`
}

// ActuatorConfig selects and parametrizes one Actuator variant.
type ActuatorConfig struct {
	// Variant is one of "script", "gpio".
	Variant string `yaml:"Variant"`

	// Sense is "heating" or "cooling".
	Sense string `yaml:"Sense"`

	// Script fields.
	OnPath     string  `yaml:"OnPath"`
	OffPath    string  `yaml:"OffPath"`
	StatusPath string  `yaml:"StatusPath"`
	Timeout    float64 `yaml:"Timeout"`

	// GPIO fields.
	Pins       []int `yaml:"Pins"`
	ActiveHigh bool  `yaml:"ActiveHigh"`
}

// Settings is the full, validated daemon configuration.
type Settings struct {
	// Addr is the control surface's listen address, host:port.
	Addr string `yaml:"Addr"`

	// TimetablePath is the on-disk backing store for the Timetable.
	TimetablePath string `yaml:"TimetablePath"`

	// SamplingInterval is the Control Loop's tick interval, in seconds.
	SamplingInterval float64 `yaml:"SamplingInterval"`

	// Scale is "celsius" or "fahrenheit", the unit the control surface
	// reports temperatures in.
	Scale string `yaml:"Scale"`

	Thermometer ThermometerConfig `yaml:"Thermometer"`
	Actuator    ActuatorConfig    `yaml:"Actuator"`

	// Debug appends --debug to external sensor/actuator script invocations.
	Debug bool `yaml:"Debug"`
}

func defaults() Settings {
	return Settings{
		Addr:             ":8080",
		TimetablePath:    "timetable.json",
		SamplingInterval: 30,
		Scale:            "celsius",
		Thermometer: ThermometerConfig{
			Variant:          "filesystem",
			OutlierThreshold: 1.0,
		},
		Actuator: ActuatorConfig{
			Variant: "gpio",
			Sense:   "heating",
			Pins:    []int{17},
		},
	}
}

// Setup loads defaults, then overlays fileName if it exists.  A missing
// file is not an error -- the defaults stand alone, matching the teacher's
// "who cares" tolerance for a missing config in cmd/andorhttp2.
func Setup(fileName string) error {
	if err := k.Load(structs.Provider(defaults(), "yaml"), nil); err != nil {
		return err
	}
	if err := k.Load(file.Provider(fileName), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such file") {
			return err
		}
		log.Printf("config: %s not found, using defaults", fileName)
	}
	return nil
}

// Get unmarshals the loaded configuration into a Settings value.  Setup
// must be called first.
func Get() (Settings, error) {
	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// WriteDefault writes the default configuration to w as YAML, for the
// mkconf subcommand.
func WriteDefault(w io.Writer) error {
	return yml.NewEncoder(w).Encode(defaults())
}
