package thermometer

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"
)

// scriptReply is the JSON object an external sensor program writes to
// standard out.
type scriptReply struct {
	Temperature *float64 `json:"temperature"`
	Error       *string `json:"error"`
}

// ScriptSensor is the external-program bridge variant: it runs Path (with
// --debug appended when Debug is set) and parses a scriptReply from its
// standard output.  A non-zero exit code or a malformed/failing reply is a
// Sensor error.
type ScriptSensor struct {
	Path    string
	Args    []string
	Timeout time.Duration
	Debug   bool
}

// NewScriptSensor builds a ScriptSensor with the spec's default per-call
// timeout.
func NewScriptSensor(path string, args ...string) ScriptSensor {
	return ScriptSensor{Path: path, Args: args, Timeout: 30 * time.Second}
}

// Temperature runs the script and parses its reply.
func (s ScriptSensor) Temperature() (float64, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := s.Args
	if s.Debug {
		args = append(append([]string{}, args...), "--debug")
	}
	cmd := exec.CommandContext(ctx, s.Path, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	runErr := cmd.Run()

	var reply scriptReply
	if err := json.Unmarshal(stdout.Bytes(), &reply); err != nil {
		if runErr != nil {
			return 0, wrapSensorErr(runErr, "sensor script exited with error and produced no parseable reply")
		}
		return 0, wrapSensorErr(err, "sensor script produced a malformed reply")
	}
	if reply.Error != nil && *reply.Error != "" {
		return 0, sensorErr("sensor script reported: " + *reply.Error)
	}
	if runErr != nil {
		return 0, wrapSensorErr(runErr, "sensor script exited with a non-zero status")
	}
	if reply.Temperature == nil {
		return 0, sensorErr("sensor script reply has no temperature")
	}
	return *reply.Temperature, nil
}
