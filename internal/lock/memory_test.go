package lock

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLocker_AcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()
	key := Keys.SKUReservation("WID-001")

	acquired, err := locker.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected first acquire to succeed")
	}

	acquired, err = locker.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected second acquire to fail while held")
	}

	released, err := locker.Release(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !released {
		t.Error("expected release of held lock to report true")
	}

	released, err = locker.Release(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released {
		t.Error("expected release of free lock to report false")
	}

	acquired, err = locker.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected acquire to succeed after release")
	}
}

func TestMemoryLocker_Expiry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()
	key := Keys.UsernameReservation("jane@example.com")

	if acquired, _ := locker.Acquire(ctx, key, 10*time.Millisecond); !acquired {
		t.Fatal("expected acquire to succeed")
	}

	time.Sleep(20 * time.Millisecond)

	acquired, err := locker.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected acquire to succeed after TTL expiry")
	}
}

func TestMemoryLocker_AcquireWithRetry(t *testing.T) {
	locker := NewMemoryLocker()
	ctx := context.Background()
	key := Keys.SKUReservation("WID-001")

	if acquired, _ := locker.Acquire(ctx, key, 15*time.Millisecond); !acquired {
		t.Fatal("expected acquire to succeed")
	}

	// Retry outlives the holder's TTL.
	acquired, err := locker.AcquireWithRetry(ctx, key, time.Minute, 5, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Error("expected retry to win the lock after expiry")
	}
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	locker := NewMemoryLocker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := locker.Acquire(ctx, "k", time.Minute); err == nil {
		t.Error("expected error from cancelled context")
	}
}
