package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"
)

// client is a thin HTTP wrapper over a thermod control surface.
type client struct {
	base string
	hc   http.Client
}

// heatingStatus mirrors the control surface's heatingStatusWire.
type heatingStatus struct {
	Timestamp          string  `json:"timestamp"`
	Mode                string `json:"mode"`
	Sense               string `json:"sense"`
	ActuatorOn          bool   `json:"actuator_on"`
	CurrentTemperature  float64 `json:"current_temperature"`
	TargetTemperature   float64 `json:"target_temperature"`
	Error               string  `json:"error,omitempty"`
	Explain             string  `json:"explain,omitempty"`
}

func (c *client) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) postJSON(path string, body []byte, out interface{}) error {
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	blob, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error   string `json:"error"`
			Explain string `json:"explain"`
		}
		if json.Unmarshal(blob, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (%d): %s", e.Error, resp.StatusCode, e.Explain)
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(blob))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(blob, out)
}

// longPollTimeout bounds how long a single /monitor request is allowed to
// hang before thermoctl gives up and retries -- the server itself has no
// such cap, but a client behind a flaky link shouldn't wait forever.
const longPollTimeout = 10 * time.Minute
