package core

import (
	"testing"
	"time"
)

func TestClockElapsed(t *testing.T) {
	c := NewClock()
	if c.Elapsed() != 0 {
		t.Error("a clock that never started reports zero")
	}

	c.Start()
	time.Sleep(10 * time.Millisecond)
	c.Update()
	first := c.Elapsed()
	if first <= 0 {
		t.Errorf("elapsed = %v, want > 0", first)
	}

	time.Sleep(5 * time.Millisecond)
	c.Update()
	if c.Elapsed() <= first {
		t.Error("elapsed must grow across updates")
	}
}

func TestClockStopFreezesElapsed(t *testing.T) {
	c := NewClock()
	c.Start()
	time.Sleep(time.Millisecond)
	c.Update()
	c.Stop()

	frozen := c.Elapsed()
	if frozen <= 0 {
		t.Fatalf("elapsed = %v, want > 0", frozen)
	}
	// Updates after Stop have no effect.
	time.Sleep(time.Millisecond)
	c.Update()
	if c.Elapsed() != frozen {
		t.Error("a stopped clock must not advance")
	}
}
