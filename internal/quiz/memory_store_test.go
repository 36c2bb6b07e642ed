package quiz

import (
	"context"
	"testing"
	"time"
)

func TestMemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(time.Hour)
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	store.Put(ctx, &Session{ParticipantID: 1, State: StateInProgress, LastActivityAt: clock})
	store.Put(ctx, &Session{ParticipantID: 2, State: StateInProgress, LastActivityAt: clock.Add(-2 * time.Hour)})

	if s, _ := store.Get(ctx, 1); s == nil {
		t.Fatal("fresh session should be returned")
	}
	if s, _ := store.Get(ctx, 2); s != nil {
		t.Fatal("idle session should be treated as gone")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after lazy expiry", store.Len())
	}

	clock = clock.Add(90 * time.Minute)
	if n := store.Reap(); n != 1 {
		t.Errorf("Reap() = %d, want 1", n)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}

func TestMemorySessionStore_NoExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(0)

	store.Put(ctx, &Session{ParticipantID: 1, LastActivityAt: time.Unix(0, 0)})
	if s, _ := store.Get(ctx, 1); s == nil {
		t.Error("zero timeout should never expire")
	}
	if n := store.Reap(); n != 0 {
		t.Errorf("Reap() = %d, want 0", n)
	}
}

func TestMemorySessionStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore(0)

	orig := &Session{ParticipantID: 1, State: StateInProgress, Answers: map[int]string{1: "A"}}
	store.Put(ctx, orig)
	orig.Answers[2] = "B"

	got, _ := store.Get(ctx, 1)
	if len(got.Answers) != 1 {
		t.Fatalf("stored session changed through caller's map: %v", got.Answers)
	}
	got.Answers[3] = "C"

	again, _ := store.Get(ctx, 1)
	if len(again.Answers) != 1 {
		t.Errorf("stored session changed through returned map: %v", again.Answers)
	}
	if again.LastActivityAt.IsZero() {
		t.Error("Put should stamp LastActivityAt when unset")
	}
}

func TestMemorySessionStore_StartReaper(t *testing.T) {
	store := NewMemorySessionStore(time.Millisecond)
	store.Put(context.Background(), &Session{ParticipantID: 1, LastActivityAt: time.Now().UTC().Add(-time.Second)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.StartReaper(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if store.Len() != 0 {
		t.Error("reaper did not remove the idle session")
	}
}
