// Package progress renders a cosmetic spinner on stderr while a case's
// request is in flight. Per §9, the spinner is advisory only: a
// non-TTY stderr degrades to a no-op rather than racing verbose output.
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/rv-nath/satyanaash/pkg/style"
)

// Spinner ticks a frame from bubbles' spinner.Dot set onto stderr at a
// fixed rate until Stop is called.
type Spinner struct {
	label  string
	ticker *time.Ticker
	done   chan struct{}
	frames spinner.Spinner
	active bool
}

// Start begins rendering a spinner labelled with label (typically the
// effective URL being requested). On a non-TTY stderr it returns a
// Spinner whose Stop is a no-op.
func Start(label string) *Spinner {
	s := &Spinner{label: label, frames: spinner.Dot}
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return s
	}
	s.active = true
	s.ticker = time.NewTicker(s.frames.FPS)
	s.done = make(chan struct{})
	go s.run()
	return s
}

func (s *Spinner) run() {
	i := 0
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			frame := s.frames.Frames[i%len(s.frames.Frames)]
			fmt.Fprintf(os.Stderr, "\r%s %s", style.AccentStyle.Render(frame), s.label)
			i++
		}
	}
}

// Stop halts the spinner and clears its line. Safe to call on a
// degraded (non-TTY) Spinner.
func (s *Spinner) Stop() {
	if !s.active {
		return
	}
	s.ticker.Stop()
	close(s.done)
	fmt.Fprint(os.Stderr, "\r"+clearLine()+"\r")
}

func clearLine() string {
	return lipgloss.NewStyle().Width(80).Render("")
}
