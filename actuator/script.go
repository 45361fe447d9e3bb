package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"
)

// scriptReply is the JSON object every actuator script writes to standard
// out, per spec section 4.2.
type scriptReply struct {
	Success bool    `json:"success"`
	Status  *int    `json:"status"`
	Error   *string `json:"error"`
}

// ScriptActuator drives three external executables (on, off, status) and
// parses their scriptReply, per spec section 4.2 variant (a).
type ScriptActuator struct {
	OnPath, OffPath, StatusPath string
	Timeout                    time.Duration
	Debug                      bool

	state
}

// NewScriptActuator builds a ScriptActuator with the spec's default per-call
// timeout.
func NewScriptActuator(onPath, offPath, statusPath string) *ScriptActuator {
	return &ScriptActuator{
		OnPath: onPath, OffPath: offPath, StatusPath: statusPath,
		Timeout: 30 * time.Second,
	}
}

func (a *ScriptActuator) run(path string) (scriptReply, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	args := []string{}
	if a.Debug {
		args = append(args, "--debug")
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	runErr := cmd.Run()

	var reply scriptReply
	if err := json.Unmarshal(stdout.Bytes(), &reply); err != nil {
		if runErr != nil {
			return reply, wrapActuatorErr(runErr, "actuator script exited with error and produced no parseable reply")
		}
		return reply, wrapActuatorErr(err, "actuator script produced a malformed reply")
	}
	if reply.Error != nil && *reply.Error != "" {
		return reply, actuatorErr("actuator script reported: " + *reply.Error)
	}
	if runErr != nil {
		return reply, wrapActuatorErr(runErr, "actuator script exited with a non-zero status")
	}
	if !reply.Success {
		return reply, actuatorErr("actuator script reported failure")
	}
	return reply, nil
}

// SwitchOn runs OnPath.  Idempotent: a device already on must still report
// success.
func (a *ScriptActuator) SwitchOn() error {
	if _, err := a.run(a.OnPath); err != nil {
		return err
	}
	a.recordOn()
	return nil
}

// SwitchOff runs OffPath and records the transition time on success.
func (a *ScriptActuator) SwitchOff() error {
	if _, err := a.run(a.OffPath); err != nil {
		return err
	}
	a.recordOff(time.Now())
	return nil
}

// Status runs StatusPath and returns the parsed 0/1 state.
func (a *ScriptActuator) Status() (bool, error) {
	reply, err := a.run(a.StatusPath)
	if err != nil {
		return false, err
	}
	if reply.Status == nil {
		return false, actuatorErr("actuator status script did not report a status")
	}
	on := *reply.Status != 0
	a.setCached(on)
	return on, nil
}

// IsOn returns the cached state, falling through to Status on the first
// call.
func (a *ScriptActuator) IsOn() bool {
	return isOnWithFallthrough(&a.state, a.Status)
}

// SwitchOffTime returns the last observed off transition, or the zero time
// if the actuator has never been switched off.
func (a *ScriptActuator) SwitchOffTime() time.Time {
	return a.switchOffTimeAt()
}
