package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow(1); !ok {
			t.Fatalf("event %d should be allowed", i+1)
		}
	}
	if rl.GetUserRemaining(1) != 0 {
		t.Errorf("GetUserRemaining() = %d, want 0", rl.GetUserRemaining(1))
	}

	ok, first := rl.Allow(1)
	if ok || !first {
		t.Errorf("4th event = (%v, %v), want (false, true)", ok, first)
	}
	ok, first = rl.Allow(1)
	if ok || first {
		t.Errorf("5th event = (%v, %v), want (false, false)", ok, first)
	}

	// other users are independent
	if ok, _ := rl.Allow(2); !ok {
		t.Error("another user should be allowed")
	}

	clock = clock.Add(61 * time.Second)
	if ok, _ := rl.Allow(1); !ok {
		t.Error("new window should allow again")
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 100; i++ {
		if ok, _ := rl.Allow(1); !ok {
			t.Fatal("disabled limiter rejected an event")
		}
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	rl.Allow(1)
	rl.Allow(2)
	clock = clock.Add(2 * time.Minute)
	rl.Allow(2)
	rl.cleanup()

	if len(rl.userLimits) != 1 {
		t.Errorf("entries after cleanup = %d, want 1", len(rl.userLimits))
	}

	rl.Reset()
	if len(rl.userLimits) != 0 {
		t.Error("Reset() should clear every entry")
	}
}
