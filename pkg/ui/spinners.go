package ui

import (
	"fmt"
	"sync"
	"time"
)

// SpinnerType represents different spinner animation styles
type SpinnerType int

const (
	SpinnerDots SpinnerType = iota
	SpinnerLine
)

// Spinner holds spinner animation frames
type Spinner struct {
	Frames   []string
	Interval time.Duration
}

// Spinners provides the available spinner animation styles
var Spinners = map[SpinnerType]Spinner{
	SpinnerDots: {
		Frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		Interval: 80 * time.Millisecond,
	},
	SpinnerLine: {
		Frames:   []string{"-", "\\", "|", "/"},
		Interval: 100 * time.Millisecond,
	},
}

// DefaultSpinner returns a braille-dot spinner on Unicode terminals,
// ASCII line spinner (-\|/) otherwise.
func DefaultSpinner() Spinner {
	if UnicodeTerminal() {
		return Spinners[SpinnerDots]
	}
	return Spinners[SpinnerLine]
}

// StartSpinner animates message on stderr until the returned stop function
// is called. Nothing is drawn in silent mode or when stderr is not a
// terminal. stop is idempotent and clears the spinner line.
func StartSpinner(message string) (stop func()) {
	if IsSilent() || !UnicodeTerminal() {
		return func() {}
	}
	return runSpinner(DefaultSpinner(), message)
}

func runSpinner(s Spinner, message string) func() {
	w := out()
	done := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			frame := s.Frames[i%len(s.Frames)]
			fmt.Fprintf(w, "\r  %s %s", SpinnerStyle.Render(frame), message)
			select {
			case <-done:
				fmt.Fprint(w, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-finished
		})
	}
}
