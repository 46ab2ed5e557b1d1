package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeRefresher struct {
	rows  int64
	err   error
	calls int
}

func (f *fakeRefresher) RefreshAges(ctx context.Context) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.rows, nil
}

type fakeLocker struct {
	acquired bool
	err      error

	gotKey string
	gotTTL time.Duration
	calls  int
}

func (f *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.calls++
	f.gotKey = key
	f.gotTTL = ttl
	if f.err != nil {
		return false, f.err
	}
	return f.acquired, nil
}

func at(day string, hour int) time.Time {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return t.Add(time.Duration(hour) * time.Hour)
}

func TestTick_BeforeConfiguredHour(t *testing.T) {
	repo := &fakeRefresher{rows: 10}
	w := New(Config{RunAtHour: 3}, repo, nil, nil, nil)

	w.tick(context.Background(), at("2026-09-01", 2))

	if repo.calls != 0 {
		t.Fatalf("refresh ran %d times before the configured hour", repo.calls)
	}

	// same day, past the hour: now it fires
	w.tick(context.Background(), at("2026-09-01", 3))

	if repo.calls != 1 {
		t.Fatalf("refresh ran %d times, want 1", repo.calls)
	}
}

func TestTick_OncePerDay(t *testing.T) {
	repo := &fakeRefresher{rows: 4}
	w := New(Config{}, repo, nil, nil, nil)

	w.tick(context.Background(), at("2026-09-01", 0))
	w.tick(context.Background(), at("2026-09-01", 5))
	w.tick(context.Background(), at("2026-09-01", 23))

	if repo.calls != 1 {
		t.Fatalf("refresh ran %d times on one day, want 1", repo.calls)
	}

	w.tick(context.Background(), at("2026-09-02", 0))

	if repo.calls != 2 {
		t.Fatalf("refresh ran %d times across two days, want 2", repo.calls)
	}
}

func TestTick_FailureRetriesNextTick(t *testing.T) {
	repo := &fakeRefresher{err: errors.New("db down")}
	w := New(Config{}, repo, nil, nil, nil)

	w.tick(context.Background(), at("2026-09-01", 1))
	if repo.calls != 1 {
		t.Fatalf("refresh ran %d times, want 1", repo.calls)
	}

	// the day is not marked done on failure, so the next tick tries again
	repo.err = nil
	w.tick(context.Background(), at("2026-09-01", 1))
	if repo.calls != 2 {
		t.Fatalf("refresh ran %d times after recovery, want 2", repo.calls)
	}

	// and once it succeeds the day is done
	w.tick(context.Background(), at("2026-09-01", 2))
	if repo.calls != 2 {
		t.Fatalf("refresh ran %d times after success, want 2", repo.calls)
	}
}

func TestTick_LockDenied(t *testing.T) {
	repo := &fakeRefresher{rows: 1}
	lock := &fakeLocker{acquired: false}
	w := New(Config{}, repo, lock, nil, nil)

	w.tick(context.Background(), at("2026-09-01", 0))

	if repo.calls != 0 {
		t.Fatalf("refresh ran %d times without the lock", repo.calls)
	}
	if lock.gotKey != "age_refresh:2026-09-01" {
		t.Errorf("lock key = %q", lock.gotKey)
	}
	if lock.gotTTL != 23*time.Hour {
		t.Errorf("lock ttl = %v", lock.gotTTL)
	}

	// denial still marks the day: no re-polling the lock every minute
	w.tick(context.Background(), at("2026-09-01", 1))
	if lock.calls != 1 {
		t.Fatalf("lock polled %d times, want 1", lock.calls)
	}
}

func TestTick_LockAcquired(t *testing.T) {
	repo := &fakeRefresher{rows: 12}
	lock := &fakeLocker{acquired: true}
	w := New(Config{}, repo, lock, nil, nil)

	w.tick(context.Background(), at("2026-09-01", 0))

	if repo.calls != 1 {
		t.Fatalf("refresh ran %d times, want 1", repo.calls)
	}
}

func TestTick_LockError(t *testing.T) {
	repo := &fakeRefresher{rows: 1}
	lock := &fakeLocker{err: errors.New("redis gone")}
	w := New(Config{}, repo, lock, nil, nil)

	w.tick(context.Background(), at("2026-09-01", 0))

	if repo.calls != 0 {
		t.Fatalf("refresh ran despite lock error")
	}

	// lock errors do not mark the day, the next tick retries
	lock.err = nil
	lock.acquired = true
	w.tick(context.Background(), at("2026-09-01", 1))

	if repo.calls != 1 {
		t.Fatalf("refresh ran %d times after lock recovery, want 1", repo.calls)
	}
}

func TestRunOnce(t *testing.T) {
	repo := &fakeRefresher{rows: 42}
	w := New(Config{}, repo, nil, nil, nil)

	rows, err := w.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 42 {
		t.Fatalf("got %d rows, want 42", rows)
	}

	repo.err = errors.New("boom")
	if _, err := w.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
