package timetable_test

import (
	"math"
	"testing"
	"time"

	"github.com/brandondube/thermod/timetable"
	"github.com/google/go-cmp/cmp"
)

func mustNew(t *testing.T) timetable.Timetable {
	t.Helper()
	tt, err := timetable.New(timetable.Anchors{T0: 17, TMin: 10, TMax: 22}, 0.5, 3600, "")
	if err != nil {
		t.Fatalf("timetable.New: %v", err)
	}
	return tt
}

func TestModeOffAlwaysInactive(t *testing.T) {
	tt := mustNew(t)
	tt, err := timetable.Apply(tt, timetable.WithMode(timetable.ModeOff))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	active, err := tt.ShouldBeActive(5.0, false, time.Time{}, now)
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("mode=off must always be inactive")
	}
}

func TestModeOnAlwaysActive(t *testing.T) {
	tt := mustNew(t)
	tt, err := timetable.Apply(tt, timetable.WithMode(timetable.ModeOn))
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	active, err := tt.ShouldBeActive(100.0, true, now.Add(-48*time.Hour), now)
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("mode=on must always be active regardless of temperature or grace time")
	}
}

func TestAutoBelowTarget(t *testing.T) {
	tt := mustNew(t)
	tt, err := timetable.Apply(tt,
		timetable.WithMode(timetable.ModeAuto),
		timetable.WithDifferential(0.5),
		timetable.WithSlot("monday", 3, 1, timetable.FromValue(21.0)),
	)
	if err != nil {
		t.Fatal(err)
	}
	// 2026-01-05 is a Monday
	now := time.Date(2026, 1, 5, 3, 16, 0, 0, time.UTC)
	target, err := tt.TargetTemperature(now)
	if err != nil {
		t.Fatal(err)
	}
	if target != 21.0 {
		t.Fatalf("expected target 21.0, got %f", target)
	}
	active, err := tt.ShouldBeActive(19.0, false, time.Time{}, now)
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("19.0 is well below 21.0-0.25, should be active")
	}
}

func TestAutoAnchorSymbolHysteresis(t *testing.T) {
	tt := mustNew(t)
	tt, err := timetable.Apply(tt,
		timetable.WithMode(timetable.ModeAuto),
		timetable.WithAnchor("tmax", 22.5),
		timetable.WithDifferential(0.5),
		timetable.WithSlot("monday", 3, 1, timetable.FromAnchor("tmax")),
	)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 1, 5, 3, 16, 0, 0, time.UTC)

	active, err := tt.ShouldBeActive(22.6, true, now.Add(-time.Minute), now)
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("22.6 is inside the on-band (< 22.75), should stay active")
	}

	active, err = tt.ShouldBeActive(22.76, true, now.Add(-time.Minute), now)
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("22.76 is outside the on-band (>= 22.75), should go inactive")
	}
}

func TestHysteresisOffSideBoundary(t *testing.T) {
	tt := mustNew(t)
	tt, _ = timetable.Apply(tt,
		timetable.WithMode(timetable.ModeT0),
		timetable.WithAnchor("t0", 20.0),
		timetable.WithDifferential(1.0),
	)
	now := time.Now()

	if active, _ := tt.ShouldBeActive(19.51, false, time.Time{}, now); active {
		t.Error("19.51 > 20-0.5, should remain inactive while off")
	}
	if active, _ := tt.ShouldBeActive(19.5, false, time.Time{}, now); !active {
		t.Error("19.5 <= 20-0.5, should become active")
	}
}

func TestGraceTimeForcesOff(t *testing.T) {
	tt := mustNew(t)
	tt, _ = timetable.Apply(tt,
		timetable.WithMode(timetable.ModeT0),
		timetable.WithAnchor("t0", 30.0), // target far above current -> hysteresis alone says active
		timetable.WithDifferential(0.5),
		timetable.WithGraceTime(60),
	)
	now := time.Now()
	onSince := now.Add(-2 * time.Minute) // 120s > 60s grace

	active, err := tt.ShouldBeActive(5.0, true, onSince, now)
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("grace time exceeded, actuator must be forced off")
	}
}

func TestGraceTimeDisabledByInfinity(t *testing.T) {
	tt := mustNew(t)
	tt, _ = timetable.Apply(tt,
		timetable.WithMode(timetable.ModeT0),
		timetable.WithAnchor("t0", 30.0),
		timetable.WithDifferential(0.5),
	) // default grace time from New is 3600 (finite); bump it to +Inf explicitly
	tt, _ = timetable.Apply(tt, timetable.WithGraceTime(math.Inf(1)))
	now := time.Now()
	onSince := now.Add(-365 * 24 * time.Hour)

	active, err := tt.ShouldBeActive(5.0, true, onSince, now)
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("an infinite grace time must never force the actuator off")
	}
}

func TestRoundTrip(t *testing.T) {
	tt := mustNew(t)
	tt, err := timetable.Apply(tt, timetable.WithSlot("friday", 12, 2, timetable.FromAnchor("tmin")))
	if err != nil {
		t.Fatal(err)
	}
	blob, err := tt.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	reloaded, err := timetable.Load(blob, tt.FilePath())
	if err != nil {
		t.Fatal(err)
	}
	slot, err := reloaded.Slot("friday", 12, 2)
	if err != nil {
		t.Fatal(err)
	}
	v, err := slot.Resolve(reloaded.Anchors())
	if err != nil {
		t.Fatal(err)
	}
	if v != reloaded.Anchors().TMin {
		t.Errorf("round-tripped slot should resolve to tmin, got %f want %f", v, reloaded.Anchors().TMin)
	}
	if reloaded.Mode() != tt.Mode() || reloaded.Differential() != tt.Differential() {
		t.Error("round trip must preserve mode and differential")
	}
}

func TestApplyRejectsInvalidOptionRollsBackEverything(t *testing.T) {
	tt := mustNew(t)
	before, err := tt.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	_, err = timetable.Apply(tt,
		timetable.WithAnchor("tmax", 32.3),
		timetable.WithGraceTime(-1), // invalid, rolls back the whole transaction
	)
	if err == nil {
		t.Fatal("expected an error from the invalid grace_time")
	}

	after, err := tt.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("partial transaction leaked through (-before +after):\n%s", diff)
	}
}

func TestLastUpdateTimestampStrictlyIncreases(t *testing.T) {
	tt := mustNew(t)
	var err error
	prev := tt.LastUpdateTimestamp()
	for i := 0; i < 5; i++ {
		tt, err = timetable.Apply(tt, timetable.WithDifferential(0.1*float64(i%10)))
		if err != nil {
			t.Fatal(err)
		}
		if !tt.LastUpdateTimestamp().After(prev) {
			t.Fatalf("last_update_timestamp did not strictly increase on mutation %d", i)
		}
		prev = tt.LastUpdateTimestamp()
	}
}

func TestLoadRejectsUnknownTopLevelKey(t *testing.T) {
	tt := mustNew(t)
	blob, err := tt.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	// graft an unknown key on
	bad := append(blob[:len(blob)-1], []byte(`,"bogus":1}`)...)
	if _, err := timetable.Load(bad, ""); err == nil {
		t.Error("expected unknown top-level key to be rejected")
	}
}
