package main

import (
	"time"

	"github.com/theckman/yacspin"
)

// newSpinner builds a spinner for "thermoctl watch" to show while it is
// parked in a long-poll request against /monitor.
func newSpinner(suffix string) (*yacspin.Spinner, error) {
	cfg := yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[9],
		Suffix:          " " + suffix,
		SuffixAutoColon: true,
		StopCharacter:   "✓",
		StopColors:      []string{"fgGreen"},
	}
	return yacspin.New(cfg)
}
