package viewstate

import (
	"context"
	"errors"
	"testing"
	"time"
)

type detailErr string

func (e detailErr) Error() string       { return "api: " + string(e) }
func (e detailErr) UserMessage() string { return string(e) }

func TestStoreTransitionsLoadingThenReady(t *testing.T) {
	var seen []Status
	store := NewStore[[]string]("Failed to load.", WithObserver(func(s Status) { seen = append(seen, s) }))

	if store.Status() != StatusIdle {
		t.Fatalf("expected idle store, got %s", store.Status())
	}
	err := store.Refresh(context.Background(), func(context.Context) ([]string, error) {
		if store.Status() != StatusLoading {
			t.Fatalf("expected loading during fetch, got %s", store.Status())
		}
		return []string{"a", "b"}, nil
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	snap := store.Snapshot()
	if snap.Status != StatusReady || !snap.HasData || len(snap.Data) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(seen) != 2 || seen[0] != StatusLoading || seen[1] != StatusReady {
		t.Fatalf("unexpected transitions %v", seen)
	}
}

func TestStoreFailureUsesDetailOrFallback(t *testing.T) {
	store := NewStore[int]("Failed to load employees.")

	_ = store.Refresh(context.Background(), func(context.Context) (int, error) {
		return 0, detailErr("Employee not found.")
	})
	if snap := store.Snapshot(); snap.Status != StatusFailed || snap.Err != "Employee not found." {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	_ = store.Refresh(context.Background(), func(context.Context) (int, error) {
		return 0, errors.New("connection refused")
	})
	if snap := store.Snapshot(); snap.Err != "Failed to load employees." {
		t.Fatalf("expected fallback message, got %q", snap.Err)
	}
}

func TestStoreKeepsPreviousDataWhenRefreshFails(t *testing.T) {
	store := NewStore[int]("failed")
	_ = store.Refresh(context.Background(), func(context.Context) (int, error) { return 42, nil })
	_ = store.Refresh(context.Background(), func(context.Context) (int, error) { return 0, errors.New("down") })

	snap := store.Snapshot()
	if !snap.Failed() || !snap.HasData || snap.Data != 42 {
		t.Fatalf("expected failed snapshot holding old data, got %+v", snap)
	}
}

func TestStoreDropsStaleResolution(t *testing.T) {
	store := NewStore[string]("failed")

	first := store.Begin()
	second := store.Begin()

	if !store.Resolve(second, "newer", nil) {
		t.Fatalf("expected latest ticket to apply")
	}
	if store.Resolve(first, "older", nil) {
		t.Fatalf("expected stale ticket to be dropped")
	}
	if got := store.Snapshot().Data; got != "newer" {
		t.Fatalf("expected newer data to win, got %q", got)
	}
}

func TestStoreResetInvalidatesInFlightFetch(t *testing.T) {
	store := NewStore[string]("failed")
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.Refresh(context.Background(), func(context.Context) (string, error) {
			<-release
			return "late", nil
		})
	}()

	for store.Status() != StatusLoading {
		time.Sleep(time.Millisecond)
	}
	store.Reset()
	close(release)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("expected ErrStale, got %v", err)
	}
	snap := store.Snapshot()
	if snap.Status != StatusIdle || snap.HasData {
		t.Fatalf("expected idle empty store, got %+v", snap)
	}
}

func TestFlashClearsAfterExactlyTTL(t *testing.T) {
	clock := NewManualClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	flash := NewFlash(clock, 3*time.Second)

	flash.Set("Employee added successfully!")
	clock.Advance(2999 * time.Millisecond)
	if flash.Message() == "" {
		t.Fatalf("message cleared too early")
	}
	clock.Advance(time.Millisecond)
	if flash.Message() != "" {
		t.Fatalf("expected message cleared at 3000ms, got %q", flash.Message())
	}
}

func TestFlashSupersedeRestartsTimer(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	flash := NewFlash(clock, 3*time.Second)

	flash.Set("first")
	clock.Advance(2 * time.Second)
	flash.Set("second")
	if clock.Pending() != 1 {
		t.Fatalf("expected the first timer to be cancelled, %d pending", clock.Pending())
	}

	clock.Advance(2 * time.Second)
	if flash.Message() != "second" {
		t.Fatalf("superseding message cleared by the old timer")
	}
	clock.Advance(time.Second)
	if flash.Message() != "" {
		t.Fatalf("expected second message cleared, got %q", flash.Message())
	}
}

func TestFlashCloseCancelsTimer(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	flash := NewFlash(clock, 3*time.Second)

	flash.Set("bye")
	flash.Close()
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers after close")
	}
	flash.Set("ignored")
	if flash.Message() != "" {
		t.Fatalf("expected closed flash to ignore Set")
	}
}

func TestManualClockRunsTimersInDeadlineOrder(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	var order []int
	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	clock.AfterFunc(time.Second, func() { order = append(order, 1) })
	stopped := clock.AfterFunc(1500*time.Millisecond, func() { order = append(order, 99) })
	if !stopped.Stop() {
		t.Fatalf("expected Stop to report a pending timer")
	}

	clock.Advance(5 * time.Second)
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected firing order %v", order)
	}
	if got := clock.Now(); !got.Equal(time.Unix(5, 0)) {
		t.Fatalf("unexpected clock time %v", got)
	}
}
