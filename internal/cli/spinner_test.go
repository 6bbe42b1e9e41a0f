package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSpinnerDrawsFrames(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "Rendering svg")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Rendering svg") {
		t.Errorf("spinner output %q should contain the message", buf.String())
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "x")
	s.Start()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	s := newSpinner(ctx, &buf, "x")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner did not stop after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopWithError(t *testing.T) {
	out := captureStdout(t)
	var buf syncBuffer
	s := newSpinner(context.Background(), &buf, "x")
	s.Start()
	s.StopWithError("Rendering failed")

	if !strings.Contains(out.String(), "Rendering failed") {
		t.Errorf("stdout = %q, want error line", out.String())
	}
}

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
