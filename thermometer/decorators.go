package thermometer

import (
	"sync"
	"time"

	"github.com/brandondube/ringo"
	"github.com/brandondube/thermod/util"
)

// ScaleAdapter converts an inner Thermometer's native scale to a configured
// scale, using F = 1.8C + 32.  It is a no-op when the scales already match.
type ScaleAdapter struct {
	Inner  Thermometer
	Native Scale
	Target Scale
}

// NewScaleAdapter wraps inner, converting from native to target.
func NewScaleAdapter(inner Thermometer, native, target Scale) ScaleAdapter {
	return ScaleAdapter{Inner: inner, Native: native, Target: target}
}

// Temperature reads the inner sensor and converts scales if needed.
func (s ScaleAdapter) Temperature() (float64, error) {
	v, err := s.Inner.Temperature()
	if err != nil {
		return 0, err
	}
	if s.Native == s.Target {
		return v, nil
	}
	if s.Native == Celsius {
		return CToF(v), nil
	}
	return FToC(v), nil
}

// SimilarityChecker rejects samples that have drifted too far from the
// recent history mean, protecting against transient hardware glitches.  Not
// safe for concurrent use without external synchronization (AveragingTask
// provides that).
type SimilarityChecker struct {
	Inner     Thermometer
	Threshold float64
	history   ringo.CircleF64
}

// NewSimilarityChecker builds a checker with a bounded history of the last
// k raw samples.
func NewSimilarityChecker(inner Thermometer, k int, threshold float64) *SimilarityChecker {
	hist := ringo.CircleF64{}
	hist.Init(k)
	return &SimilarityChecker{Inner: inner, Threshold: threshold, history: hist}
}

// Temperature reads the inner sensor, compares it to the history mean, and
// either appends and returns it or rejects it with a Sensor error.
func (s *SimilarityChecker) Temperature() (float64, error) {
	v, err := s.Inner.Temperature()
	if err != nil {
		return 0, err
	}
	samples := s.history.Contiguous()
	if len(samples) > 0 {
		mean := util.Mean(samples)
		if diff := v - mean; diff >= s.Threshold || diff <= -s.Threshold {
			return 0, sensorErr("sample rejected by similarity check")
		}
	}
	s.history.Append(v)
	return v, nil
}

// AveragingTask samples Inner every ShortInterval into a ring buffer sized
// for AveragingMinutes, and reports the trimmed mean (dropping the top and
// bottom SkipFrac/2 fraction) on demand.  It owns a background goroutine;
// call Start before the first Temperature call and Stop at shutdown.
type AveragingTask struct {
	Inner           Thermometer
	ShortInterval   time.Duration
	AveragingMinutes float64
	SkipFrac        float64

	mu     sync.Mutex
	buf    ringo.CircleF64
	ticker *time.Ticker
	stop   chan struct{}
}

// NewAveragingTask builds an AveragingTask with a ring buffer capacity of
// averagingMinutes*60/shortInterval samples, per spec section 4.1.
func NewAveragingTask(inner Thermometer, shortInterval time.Duration, averagingMinutes, skipFrac float64) *AveragingTask {
	capacity := int(averagingMinutes * 60 / shortInterval.Seconds())
	if capacity < 1 {
		capacity = 1
	}
	buf := ringo.CircleF64{}
	buf.Init(capacity)
	return &AveragingTask{
		Inner:           inner,
		ShortInterval:   shortInterval,
		AveragingMinutes: averagingMinutes,
		SkipFrac:        skipFrac,
		buf:             buf,
		stop:            make(chan struct{}),
	}
}

// Start launches the background sampling goroutine.
func (a *AveragingTask) Start() {
	a.ticker = time.NewTicker(a.ShortInterval)
	go a.run()
}

// Stop halts the background sampling goroutine.  AveragingTask may not be
// restarted after Stop; build a new one instead.
func (a *AveragingTask) Stop() {
	close(a.stop)
}

func (a *AveragingTask) run() {
	for {
		select {
		case <-a.ticker.C:
			v, err := a.Inner.Temperature()
			if err != nil {
				// a transient inner-sensor failure just skips this tick;
				// the next accepted sample still anchors the average.
				continue
			}
			a.mu.Lock()
			a.buf.Append(v)
			a.mu.Unlock()
		case <-a.stop:
			a.ticker.Stop()
			return
		}
	}
}

// Temperature returns the trimmed mean of the ring buffer's current
// contents.  Returns a Sensor error if no samples have been collected yet.
func (a *AveragingTask) Temperature() (float64, error) {
	a.mu.Lock()
	samples := a.buf.Contiguous()
	a.mu.Unlock()
	if len(samples) == 0 {
		return 0, sensorErr("averaging task has not collected any samples yet")
	}
	return util.TrimmedMean(samples, a.SkipFrac), nil
}
