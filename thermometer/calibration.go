package thermometer

import "github.com/brandondube/thermod/therr"

// CalFunc maps a raw reading to a calibrated one.
type CalFunc func(raw float64) float64

// Identity is the no-op calibration.
func Identity(raw float64) float64 { return raw }

// LinearFit performs an ordinary-least-squares fit of ref = a*raw + b over
// two equal-length slices and returns the resulting CalFunc.  At least two
// points are required.
func LinearFit(raw, ref []float64) (CalFunc, error) {
	n := len(raw)
	if n != len(ref) {
		return nil, therr.New(therr.Validation, "raw and ref must have equal length")
	}
	if n < 2 {
		return nil, therr.New(therr.Validation, "linear fit requires at least two points")
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := 0; i < n; i++ {
		x, y := raw[i], ref[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	nf := float64(n)
	denom := nf*sumXX - sumX*sumX
	if denom == 0 {
		return nil, therr.New(therr.Validation, "raw values are degenerate (zero variance)")
	}
	a := (nf*sumXY - sumX*sumY) / denom
	b := (sumY / nf) - a*(sumX/nf)
	return func(r float64) float64 { return a*r + b }, nil
}
