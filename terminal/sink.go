package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrOutputWrite reports that the terminal rejected a frame write.
// Callers treat it as fatal: the display contract cannot be honored further.
var ErrOutputWrite = errors.New("terminal output write failed")

// Sink is the alternate-screen frame output plus raw input for one terminal
type Sink struct {
	backend Backend
	writer  *bufio.Writer
	input   *inputReader
	mouse   bool

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// backendWriter adapts Backend to io.Writer for the bufio layer
type backendWriter struct{ b Backend }

func (w backendWriter) Write(p []byte) (int, error) { return w.b.Write(p) }

// NewSink creates a sink on stdin/stdout. With mouse set, any-motion SGR mouse
// reporting is enabled on Init
func NewSink(mouse bool) *Sink {
	return newSink(newBackend(), mouse)
}

func newSink(b Backend, mouse bool) *Sink {
	return &Sink{
		backend: b,
		writer:  bufio.NewWriterSize(backendWriter{b}, 131072), // 128KB, one frame per flush
		mouse:   mouse,
	}
}

// Init enters raw mode, alternate screen, clears and hides the cursor
func (s *Sink) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if err := s.backend.Init(); err != nil {
		return fmt.Errorf("terminal init: %w", err)
	}

	w := s.writer
	w.Write(csiAltScreenEnter)
	w.Write(csiClear)
	w.Write(csiCursorHide)
	w.Write(csiAutoWrapOn)
	if s.mouse {
		w.Write(csiMouseSGROn)
		w.Write(csiMouseClickOn)
		w.Write(csiMouseDragOn)
		w.Write(csiMouseMotionOn)
	}
	if err := w.Flush(); err != nil {
		s.backend.Fini()
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}

	s.input = newInputReader(s.backend)
	s.input.start()

	s.initialized = true
	return nil
}

// Fini restores terminal state. Safe to call multiple times
func (s *Sink) Fini() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.finalized {
		return
	}

	if s.input != nil {
		s.input.stop()
	}

	w := s.writer
	if s.mouse {
		w.Write(csiMouseMotionOff)
		w.Write(csiMouseDragOff)
		w.Write(csiMouseClickOff)
		w.Write(csiMouseSGROff)
	}
	w.Write(csiSGR0)
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Flush()

	s.backend.Fini()
	s.finalized = true
}

// Size returns current terminal dimensions in cells
func (s *Sink) Size() (int, int) {
	return s.backend.Size()
}

// Events returns the parsed input stream. Nil before Init
func (s *Sink) Events() <-chan Event {
	if s.input == nil {
		return nil
	}
	return s.input.eventCh
}

// WriteFrame moves the cursor home and writes one full frame
func (s *Sink) WriteFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || s.finalized {
		return fmt.Errorf("%w: sink not active", ErrOutputWrite)
	}

	w := s.writer
	w.Write(csiHome)
	w.Write(frame)
	if err := w.Flush(); err != nil {
		// bufio errors are sticky, reset before the next frame
		w.Reset(backendWriter{s.backend})
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Fini() cannot be called normally
func EmergencyReset(w io.Writer) {
	w.Write(csiMouseMotionOff)
	w.Write(csiMouseDragOff)
	w.Write(csiMouseClickOff)
	w.Write(csiMouseSGROff)

	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
