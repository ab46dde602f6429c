package transfer

import (
	"testing"
	"time"

	"mediaoutbox/internal/outbox"
)

func TestBackoffDelaySchedule(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		5 * time.Second,
		30 * time.Second,
		2 * time.Minute,
		5 * time.Minute,
	}
	for attempts, expected := range want {
		if got := backoffDelay(attempts + 1); got != expected {
			t.Fatalf("backoffDelay(%d) = %v, want %v", attempts+1, got, expected)
		}
	}

	// Beyond the schedule the last slot holds.
	if got := backoffDelay(len(want) + 3); got != want[len(want)-1] {
		t.Fatalf("backoffDelay past schedule = %v, want %v", got, want[len(want)-1])
	}
	if got := backoffDelay(0); got != 0 {
		t.Fatalf("backoffDelay(0) = %v, want 0", got)
	}
}

func TestEligibility(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	fresh := &outbox.Entry{RetryCount: 0}
	if !eligible(fresh, now) {
		t.Fatal("first attempt must always be eligible")
	}

	waiting := &outbox.Entry{RetryCount: 2, LastAttemptAt: now.Add(-4 * time.Second)}
	if eligible(waiting, now) {
		t.Fatal("entry inside its 5s window must wait")
	}

	ready := &outbox.Entry{RetryCount: 2, LastAttemptAt: now.Add(-5 * time.Second)}
	if !eligible(ready, now) {
		t.Fatal("entry at its window boundary is eligible")
	}
}
