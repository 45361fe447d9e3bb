package util_test

import (
	"math"
	"testing"
	"time"

	"github.com/brandondube/thermod/util"
)

func TestUniqueString(t *testing.T) {
	inp := []string{"a", "b", "c", "a"}
	expected := []string{"a", "b", "c"}
	output := util.UniqueString(inp)
	for i := 0; i < len(output); i++ {
		if output[i] != expected[i] {
			t.Errorf("expected %s got %s", expected[i], output[i])
		}
	}
}

func TestClampHigh(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = 20.
	)
	clamped := util.Clamp(input, low, high)
	if clamped == input {
		t.Errorf("expected out of range value %f to be clipped to %f < x < %f, got %f", input, low, high, clamped)
	}
}

func TestClampLow(t *testing.T) {
	var (
		low   = 0.
		high  = 10.
		input = -1.
	)
	clamped := util.Clamp(input, low, high)
	if clamped == input {
		t.Errorf("expected out of range value %f to be clipped to %f < x < %f, got %f", input, low, high, clamped)
	}
}

func TestSecsToDuration(t *testing.T) {
	var dur time.Duration = 123456789
	secs := dur.Seconds()
	out := util.SecsToDuration(secs)
	if out != dur {
		t.Errorf("expected SecsToDuration to round trip, output %v != expected %v", out, dur)
	}
}

func TestLimiterCheck(t *testing.T) {
	l := util.Limiter{Min: 0, Max: 10}
	if !l.Check(5) {
		t.Error("5 should be within [0,10]")
	}
	if l.Check(11) {
		t.Error("11 should not be within [0,10]")
	}
}

func TestMergeErrorsAllNil(t *testing.T) {
	err := util.MergeErrors([]error{nil, nil, nil})
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestMean(t *testing.T) {
	m := util.Mean([]float64{1, 2, 3, 4})
	if m != 2.5 {
		t.Errorf("expected 2.5, got %f", m)
	}
}

func TestPopStdDevConstant(t *testing.T) {
	sd := util.PopStdDev([]float64{5, 5, 5, 5})
	if sd != 0 {
		t.Errorf("expected 0 stddev for constant input, got %f", sd)
	}
}

func TestMedianOdd(t *testing.T) {
	if util.Median([]float64{3, 1, 2}) != 2 {
		t.Error("median of {1,2,3} should be 2")
	}
}

func TestMedianEvenTwoIsMean(t *testing.T) {
	got := util.Median([]float64{10, 20})
	want := util.Mean([]float64{10, 20})
	if got != want {
		t.Errorf("median of two values should equal their mean, got %f want %f", got, want)
	}
}

func TestTrimmedMeanDropsOutliers(t *testing.T) {
	vals := []float64{1, 20, 21, 22, 23, 24, 1000}
	got := util.TrimmedMean(vals, 2.0/7.0*2) // drop 2 from each tail
	if math.Abs(got-22) > 2 {
		t.Errorf("expected trimmed mean near 22, got %f", got)
	}
}
