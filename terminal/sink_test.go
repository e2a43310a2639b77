package terminal

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeBackend records output and serves queued input
type fakeBackend struct {
	mu       sync.Mutex
	out      bytes.Buffer
	input    chan []byte
	writeErr error
	cols     int
	rows     int
	inited   bool
	finied   bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{input: make(chan []byte, 8), cols: 100, rows: 30}
}

func (f *fakeBackend) Init() error {
	f.inited = true
	return nil
}

func (f *fakeBackend) Fini() { f.finied = true }

func (f *fakeBackend) Size() (int, int) { return f.cols, f.rows }

func (f *fakeBackend) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.out.Write(p)
}

func (f *fakeBackend) Read(stopCh <-chan struct{}) ([]byte, error) {
	select {
	case <-stopCh:
		return nil, nil
	case data := <-f.input:
		return data, nil
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (f *fakeBackend) output() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out.String()
}

func TestSinkInitEntersAltScreen(t *testing.T) {
	fb := newFakeBackend()
	s := newSink(fb, true)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer s.Fini()

	out := fb.output()
	for _, seq := range []string{"\x1b[?1049h", "\x1b[2J", "\x1b[?25l", "\x1b[?1006h", "\x1b[?1003h"} {
		if !strings.Contains(out, seq) {
			t.Errorf("init output missing %q", seq)
		}
	}
	if !fb.inited {
		t.Error("backend raw mode not entered")
	}
}

func TestSinkWriteFrameHomesCursor(t *testing.T) {
	fb := newFakeBackend()
	s := newSink(fb, false)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer s.Fini()

	fb.mu.Lock()
	fb.out.Reset()
	fb.mu.Unlock()

	if err := s.WriteFrame([]byte("\x1b[48;5;196m ")); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if got, want := fb.output(), "\x1b[H\x1b[48;5;196m "; got != want {
		t.Errorf("frame output = %q, want %q", got, want)
	}
}

func TestSinkWriteFailureIsOutputWrite(t *testing.T) {
	fb := newFakeBackend()
	s := newSink(fb, false)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer s.Fini()

	fb.mu.Lock()
	fb.writeErr = errors.New("broken pipe")
	fb.mu.Unlock()

	err := s.WriteFrame([]byte("x"))
	if !errors.Is(err, ErrOutputWrite) {
		t.Fatalf("expected ErrOutputWrite, got %v", err)
	}

	// A recovered backend accepts the next frame
	fb.mu.Lock()
	fb.writeErr = nil
	fb.mu.Unlock()
	if err := s.WriteFrame([]byte("y")); err != nil {
		t.Errorf("write after recovery: %v", err)
	}
}

func TestSinkWriteBeforeInit(t *testing.T) {
	s := newSink(newFakeBackend(), false)
	if err := s.WriteFrame([]byte("x")); !errors.Is(err, ErrOutputWrite) {
		t.Errorf("expected ErrOutputWrite before Init, got %v", err)
	}
}

func TestSinkFiniRestoresOnce(t *testing.T) {
	fb := newFakeBackend()
	s := newSink(fb, true)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	s.Fini()
	s.Fini()

	out := fb.output()
	if strings.Count(out, "\x1b[?1049l") != 1 {
		t.Errorf("alt screen exit written %d times, want 1", strings.Count(out, "\x1b[?1049l"))
	}
	if !strings.Contains(out, "\x1b[?1003l") {
		t.Error("mouse motion tracking not disabled")
	}
	if !fb.finied {
		t.Error("backend not restored")
	}
}

func TestSinkEventsDeliversParsedInput(t *testing.T) {
	fb := newFakeBackend()
	s := newSink(fb, true)
	if err := s.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer s.Fini()

	fb.input <- []byte("\x1b[<0;4;2M\x03")

	var got []Event
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case ev := <-s.Events():
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, received %+v", got)
		}
	}

	if got[0].Type != EventMouse || got[0].MouseCol != 4 || got[0].MouseRow != 2 {
		t.Errorf("first event = %+v, want mouse at (4,2)", got[0])
	}
	if got[1].Key != KeyInterrupt {
		t.Errorf("second event key = %d, want KeyInterrupt", got[1].Key)
	}
}
