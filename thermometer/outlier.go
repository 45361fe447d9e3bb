package thermometer

import (
	"log"

	"github.com/brandondube/thermod/util"
)

// OutlierPolicy reduces several simultaneous source readings (multiple
// 1-wire devices, multiple analog channels) to one value, warning once
// until the sources come back in range.
type OutlierPolicy struct {
	// Threshold is the population standard deviation, in degrees, at or
	// above which the sources are considered divergent.
	Threshold float64

	warnedOnce bool
}

// DefaultOutlierPolicy returns a policy with a conservative 1 degree
// threshold.
func DefaultOutlierPolicy() OutlierPolicy {
	return OutlierPolicy{Threshold: 1.0}
}

// Reduce computes the population standard deviation across readings; if it
// is at or above the threshold, a warning is logged exactly once until a
// subsequent in-range call resets it.  The returned value is always the
// median of readings (mean, in the two-reading case, which Median already
// computes identically).
func (o *OutlierPolicy) Reduce(readings []float64) (float64, error) {
	if len(readings) == 0 {
		return 0, sensorErr("no sources available to reduce")
	}
	if len(readings) == 1 {
		o.warnedOnce = false
		return readings[0], nil
	}

	sd := util.PopStdDev(readings)
	if sd >= o.Threshold {
		if !o.warnedOnce {
			log.Printf("thermometer: sources diverge by %.3f degrees (threshold %.3f)", sd, o.Threshold)
			o.warnedOnce = true
		}
	} else {
		o.warnedOnce = false
	}
	return util.Median(readings), nil
}
