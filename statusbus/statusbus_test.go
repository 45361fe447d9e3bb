package statusbus

import (
	"testing"
	"time"
)

func TestWaitReceivesNextPublish(t *testing.T) {
	b := New()
	done := make(chan Status, 1)
	go func() {
		s, ok := b.Wait(nil)
		if !ok {
			t.Error("expected ok=true")
		}
		done <- s
	}()
	time.Sleep(20 * time.Millisecond)
	b.Publish(Status{CurrentTemperature: 21.5})

	select {
	case s := <-done:
		if s.CurrentTemperature != 21.5 {
			t.Errorf("expected 21.5, got %f", s.CurrentTemperature)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestLateWaiterParksForNextPublish(t *testing.T) {
	b := New()
	b.Publish(Status{CurrentTemperature: 10})

	done := make(chan Status, 1)
	go func() {
		s, _ := b.Wait(nil)
		done <- s
	}()
	time.Sleep(20 * time.Millisecond)
	b.Publish(Status{CurrentTemperature: 99})

	select {
	case s := <-done:
		if s.CurrentTemperature != 99 {
			t.Errorf("a late waiter must not replay the old snapshot, got %f", s.CurrentTemperature)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never woke")
	}
}

func TestPublishWithNoWaitersIsNoop(t *testing.T) {
	b := New()
	b.Publish(Status{CurrentTemperature: 1}) // must not panic or block
}

func TestWaitCancelled(t *testing.T) {
	b := New()
	cancel := make(chan struct{})
	done := make(chan bool, 1)
	go func() {
		_, ok := b.Wait(cancel)
		done <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	close(cancel)

	select {
	case ok := <-done:
		if ok {
			t.Error("expected ok=false on cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled waiter never woke")
	}
}
