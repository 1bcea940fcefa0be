package testfixtures

import (
	"testing"
	"time"
)

func TestClockZeroStartUsesReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
}

func TestClockAdvancePastSessionEnd(t *testing.T) {
	start := ReferenceTime()
	clock := NewClock(start)

	// A 60 minute session assigned at start is overtime once the clock has
	// moved past its end.
	updated := clock.Advance(61 * time.Minute)
	if !updated.Equal(start.Add(61 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(3 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(3 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(3*time.Hour), got)
	}
}

func TestClockNowFuncTracksAdvance(t *testing.T) {
	clock := NewClock(ReferenceTime())
	nowFn := clock.NowFunc()

	before := nowFn()
	clock.Advance(15 * time.Minute)
	if got := nowFn(); !got.Equal(before.Add(15 * time.Minute)) {
		t.Fatalf("expected the injected function to see the advance, got %v", got)
	}
}
