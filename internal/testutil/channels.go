// Package testutil holds helpers for tests that wait on goroutines.
package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	DefaultTestTimeout = 5 * time.Second
	ShortTestTimeout   = time.Second
)

// WaitForValue receives one value from ch, failing the test after timeout.
func WaitForValue[T any](t *testing.T, ch <-chan T, timeout time.Duration, msg string) T {
	t.Helper()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v
	case <-timer.C:
		require.FailNow(t, msg)
		panic("unreachable")
	}
}

// WaitForChannel waits for ch to be signalled or closed.
func WaitForChannel(t *testing.T, ch <-chan struct{}, timeout time.Duration, msg string) {
	t.Helper()
	WaitForValue(t, ch, timeout, msg)
}
