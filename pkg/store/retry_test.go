package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryTransient(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return transient(errors.New("connection refused"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryPermanent(t *testing.T) {
	calls := 0
	boom := errors.New("auth failed")
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("retry() error = %v, want %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	boom := errors.New("refused")
	calls := 0
	err := retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return transient(boom)
	})
	if err != boom {
		t.Errorf("retry() error = %v, want unwrapped %v", err, boom)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, 3, time.Hour, func() error {
		return transient(errors.New("refused"))
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("retry() error = %v, want context.Canceled", err)
	}
}

func TestTransientNil(t *testing.T) {
	if transient(nil) != nil {
		t.Error("transient(nil) should be nil")
	}
}
