package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner draws a progress indicator on w until stopped or until its
// context is cancelled.
type spinner struct {
	w       io.Writer
	message string
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once
	mu      sync.Mutex
}

func newSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		message: message,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.w, "\r%s %s", StyleHighlight.Render(spinnerFrames[i%len(spinnerFrames)]), StyleDim.Render(s.message))
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		s.mu.Lock()
		defer s.mu.Unlock()
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	})
}

// StopWithError stops the spinner and prints an error line.
func (s *spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}
