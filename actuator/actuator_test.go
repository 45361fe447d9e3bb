package actuator

import (
	"testing"
	"time"
)

func TestIsOnFallsThroughOnFirstCall(t *testing.T) {
	var s state
	calls := 0
	statusFn := func() (bool, error) {
		calls++
		return true, nil
	}
	if on := isOnWithFallthrough(&s, statusFn); !on {
		t.Error("expected true from fallthrough status")
	}
	if calls != 1 {
		t.Fatalf("expected exactly one status call, got %d", calls)
	}
	// second call must use the cache, not call status again
	if on := isOnWithFallthrough(&s, statusFn); !on {
		t.Error("expected cached true")
	}
	if calls != 1 {
		t.Errorf("expected status to not be called again, got %d calls", calls)
	}
}

func TestRecordOffSetsSwitchOffTime(t *testing.T) {
	var s state
	before := time.Now()
	s.recordOff(before)
	if s.switchOffTimeAt() != before {
		t.Error("switch_off_time was not recorded")
	}
	if s.isOn() {
		t.Error("recordOff must clear the cached on state")
	}
}

func TestRecordOnSetsCache(t *testing.T) {
	var s state
	s.recordOn()
	if !s.isOn() {
		t.Error("recordOn must set the cached on state")
	}
}

func TestGPIONameFormatting(t *testing.T) {
	cases := map[int]string{0: "0", 7: "7", 17: "17", 27: "27"}
	for n, want := range cases {
		if got := gpioName(n); got != want {
			t.Errorf("gpioName(%d) = %q, want %q", n, got, want)
		}
	}
}
