package main

import (
	"fmt"
	"time"

	"github.com/brandondube/thermod/actuator"
	"github.com/brandondube/thermod/comm"
	"github.com/brandondube/thermod/config"
	"github.com/brandondube/thermod/thermometer"
	"github.com/brandondube/thermod/util"
)

// buildThermometer constructs the configured Thermometer variant, wrapping
// it with the optional similarity-check and averaging decorators per spec
// section 4.1.
func buildThermometer(cfg config.ThermometerConfig) (thermometer.Thermometer, error) {
	var t thermometer.Thermometer
	switch cfg.Variant {
	case "script":
		s := thermometer.NewScriptSensor(cfg.ScriptPath, cfg.ScriptArgs...)
		if cfg.ScriptTimeout > 0 {
			s.Timeout = util.SecsToDuration(cfg.ScriptTimeout)
		}
		t = s
	case "filesystem":
		fs := thermometer.NewFilesystemSensor(cfg.DevicePaths...)
		if cfg.OutlierThreshold > 0 {
			fs.Outlier.Threshold = cfg.OutlierThreshold
		}
		t = &fs
	case "analog":
		rd := comm.NewRemoteDevice(cfg.SerialDevice, true, nil, nil)
		adc := thermometer.NewSerialADC(rd, []byte("RD?"))
		sensor := thermometer.NewAnalogSensor(adc, cfg.VRef, cfg.Resolution)
		t = &sensor
	default:
		return nil, fmt.Errorf("unknown thermometer variant %q", cfg.Variant)
	}

	if cfg.SimilarityWindow > 0 {
		t = thermometer.NewSimilarityChecker(t, cfg.SimilarityWindow, cfg.SimilarityThresh)
	}
	if cfg.AveragingMinutes > 0 {
		avg := thermometer.NewAveragingTask(t, time.Second, cfg.AveragingMinutes, 0.1)
		avg.Start()
		t = avg
	}
	return t, nil
}

// applyScale wraps t with a ScaleAdapter when scale is "fahrenheit".  Every
// sensor variant in this package reports celsius natively.  t is the whole
// chain built by buildThermometer, so the adapter is the outermost layer.
func applyScale(t thermometer.Thermometer, scale string) thermometer.Thermometer {
	if scale != "fahrenheit" {
		return t
	}
	return thermometer.NewScaleAdapter(t, thermometer.Celsius, thermometer.Fahrenheit)
}

// parseSense converts the configured Sense string to actuator.Sense,
// defaulting to heating for an empty or unrecognized value.
func parseSense(s string) actuator.Sense {
	if s == "cooling" {
		return actuator.SenseCooling
	}
	return actuator.SenseHeating
}

// buildActuator constructs the configured Actuator variant.
func buildActuator(cfg config.ActuatorConfig) (actuator.Actuator, error) {
	switch cfg.Variant {
	case "script":
		a := actuator.NewScriptActuator(cfg.OnPath, cfg.OffPath, cfg.StatusPath)
		if cfg.Timeout > 0 {
			a.Timeout = util.SecsToDuration(cfg.Timeout)
		}
		return a, nil
	case "gpio":
		return actuator.NewGPIORelay(cfg.Pins, cfg.ActiveHigh)
	default:
		return nil, fmt.Errorf("unknown actuator variant %q", cfg.Variant)
	}
}
