package coordinator_test

import (
	"testing"
	"time"

	"github.com/brandondube/thermod/coordinator"
	"github.com/brandondube/thermod/timetable"
)

func newTestTable(t *testing.T) timetable.Timetable {
	t.Helper()
	tt, err := timetable.New(timetable.Anchors{T0: 17, TMin: 10, TMax: 22}, 0.5, 3600, "")
	if err != nil {
		t.Fatalf("building test timetable: %v", err)
	}
	return tt
}

func TestGetReturnsCurrentState(t *testing.T) {
	tt := newTestTable(t)
	c := coordinator.New(tt)
	got := c.Get()
	if got.Mode() != tt.Mode() {
		t.Errorf("expected mode %v got %v", tt.Mode(), got.Mode())
	}
}

func TestMutateRejectedLeavesStateUntouched(t *testing.T) {
	tt := newTestTable(t)
	c := coordinator.New(tt)
	before := c.Get()

	err := c.Mutate(func(cur timetable.Timetable) (timetable.Timetable, error) {
		return timetable.Apply(cur, timetable.WithDifferential(5)) // out of [0,1]
	})
	if err == nil {
		t.Fatal("expected rejected mutation to return an error")
	}
	after := c.Get()
	if after.LastUpdateTimestamp() != before.LastUpdateTimestamp() {
		t.Error("rejected mutation must not bump last_update_timestamp")
	}
}

func TestMutateAcceptedBroadcastsWaiters(t *testing.T) {
	tt := newTestTable(t)
	c := coordinator.New(tt)

	woke := make(chan timetable.Timetable, 1)
	go func() {
		woke <- c.Wait(5 * time.Second)
	}()
	time.Sleep(50 * time.Millisecond) // give the waiter a chance to park

	err := c.Mutate(func(cur timetable.Timetable) (timetable.Timetable, error) {
		return timetable.Apply(cur, timetable.WithMode(timetable.ModeOff))
	})
	if err != nil {
		t.Fatalf("unexpected mutate error: %v", err)
	}

	select {
	case got := <-woke:
		if got.Mode() != timetable.ModeOff {
			t.Errorf("expected waiter to observe mode off, got %v", got.Mode())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not woken by accepted mutation")
	}
}

func TestWaitTimesOut(t *testing.T) {
	tt := newTestTable(t)
	c := coordinator.New(tt)

	start := time.Now()
	c.Wait(50 * time.Millisecond)
	if time.Since(start) > time.Second {
		t.Error("Wait took far longer than its timeout")
	}
}
