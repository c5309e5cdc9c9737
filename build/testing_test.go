package build

import (
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient failure")

// TestRetry checks that Retry gives up only after the configured number of
// attempts, and returns nil as soon as fn succeeds.
func TestRetry(t *testing.T) {
	attempts := 0
	err := Retry(3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

// TestRetryExhausted checks that Retry surfaces the final error once all
// attempts are spent.
func TestRetryExhausted(t *testing.T) {
	attempts := 0
	err := Retry(2, time.Millisecond, func() error {
		attempts++
		return errTransient
	})
	if err != errTransient {
		t.Fatalf("expected errTransient, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
