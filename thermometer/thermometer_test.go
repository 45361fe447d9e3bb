package thermometer

import (
	"math"
	"testing"
	"time"
)

type fakeSensor struct {
	vals []float64
	i    int
}

func (f *fakeSensor) Temperature() (float64, error) {
	v := f.vals[f.i]
	if f.i < len(f.vals)-1 {
		f.i++
	}
	return v, nil
}

func TestScaleAdapterConverts(t *testing.T) {
	inner := &fakeSensor{vals: []float64{100}}
	s := NewScaleAdapter(inner, Celsius, Fahrenheit)
	v, err := s.Temperature()
	if err != nil {
		t.Fatal(err)
	}
	if v != 212 {
		t.Errorf("100C should be 212F, got %f", v)
	}
}

func TestScaleAdapterNoOp(t *testing.T) {
	inner := &fakeSensor{vals: []float64{21.5}}
	s := NewScaleAdapter(inner, Celsius, Celsius)
	v, err := s.Temperature()
	if err != nil {
		t.Fatal(err)
	}
	if v != 21.5 {
		t.Errorf("matching scales should be a no-op, got %f", v)
	}
}

func TestSimilarityCheckerRejectsOutlier(t *testing.T) {
	inner := &fakeSensor{vals: []float64{20, 20, 20, 20, 50}}
	checker := NewSimilarityChecker(inner, 4, 1.0)
	for i := 0; i < 4; i++ {
		if _, err := checker.Temperature(); err != nil {
			t.Fatalf("unexpected rejection on warm-up sample %d: %v", i, err)
		}
	}
	if _, err := checker.Temperature(); err == nil {
		t.Error("expected the 50-degree spike to be rejected")
	}
}

func TestLinearFit(t *testing.T) {
	// ref = 2*raw + 1, exactly
	raw := []float64{0, 1, 2, 3}
	ref := []float64{1, 3, 5, 7}
	cal, err := LinearFit(raw, ref)
	if err != nil {
		t.Fatal(err)
	}
	got := cal(10)
	want := 21.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("cal(10) = %f, want %f", got, want)
	}
}

func TestLinearFitRejectsTooFewPoints(t *testing.T) {
	if _, err := LinearFit([]float64{1}, []float64{1}); err == nil {
		t.Error("expected an error with fewer than 2 points")
	}
}

func TestOutlierPolicyMedianOfThree(t *testing.T) {
	o := DefaultOutlierPolicy()
	v, err := o.Reduce([]float64{20, 21, 22})
	if err != nil {
		t.Fatal(err)
	}
	if v != 21 {
		t.Errorf("expected median 21, got %f", v)
	}
}

func TestOutlierPolicyMeanOfTwo(t *testing.T) {
	o := DefaultOutlierPolicy()
	v, err := o.Reduce([]float64{20, 22})
	if err != nil {
		t.Fatal(err)
	}
	if v != 21 {
		t.Errorf("expected mean-of-two 21, got %f", v)
	}
}

func TestOutlierPolicyEmptyFails(t *testing.T) {
	o := DefaultOutlierPolicy()
	if _, err := o.Reduce(nil); err == nil {
		t.Error("expected an error reducing zero sources")
	}
}

func TestAveragingTaskTrimmedMean(t *testing.T) {
	inner := &fakeSensor{vals: []float64{1}}
	task := NewAveragingTask(inner, time.Second, 1.0/60.0, 0) // capacity 1
	task.buf.Append(10)
	v, err := task.Temperature()
	if err != nil {
		t.Fatal(err)
	}
	if v != 10 {
		t.Errorf("expected 10, got %f", v)
	}
}
