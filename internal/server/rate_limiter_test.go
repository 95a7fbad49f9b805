package server

import (
	"testing"
	"time"
)

func TestRateLimiterBurstAndRefill(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := newRateLimiter(3, time.Second)
	rl.lastCheck = now
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("message %d rejected within burst", i)
		}
	}
	if rl.allow() {
		t.Fatal("message beyond burst allowed")
	}

	// Half the interval refills one and a half tokens.
	now = now.Add(time.Second / 2)
	if !rl.allow() {
		t.Fatal("message rejected after refill")
	}
	if rl.allow() {
		t.Fatal("refill exceeded elapsed time")
	}

	// Long idle periods never exceed capacity.
	now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		if !rl.allow() {
			t.Fatalf("message %d rejected after idle", i)
		}
	}
	if rl.allow() {
		t.Fatal("capacity exceeded after idle")
	}
}

func TestRateLimiterSanitizesInput(t *testing.T) {
	rl := newRateLimiter(0, 0)
	if rl.capacity != 1 {
		t.Errorf("capacity = %v, want 1", rl.capacity)
	}
	if rl.rate != 1 {
		t.Errorf("rate = %v, want 1", rl.rate)
	}
}
