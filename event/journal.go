package event

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// maxRecordSize bounds one journal line
const maxRecordSize = 64 * 1024

// Entry is one journal record: an event and its offset from recording start
type Entry struct {
	Offset time.Duration
	Event  WindowEvent
}

// Recorder appends delivered events to a JSONL journal. Each line is the
// event object plus "t", the millisecond offset since the recorder was created.
// Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	w     *bufio.Writer
	start time.Time
	now   func() time.Time
	err   error
}

// NewRecorder starts the journal clock
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{w: bufio.NewWriter(w), start: time.Now(), now: time.Now}
}

// Record writes one event line; the first write error sticks
func (r *Recorder) Record(ev WindowEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	ms := r.now().Sub(r.start).Milliseconds()
	line, err := sjson.SetBytes([]byte(`{}`), "t", ms)
	if err != nil {
		return err
	}
	if line, err = appendEvent(line, ev); err != nil {
		return err
	}
	line = append(line, '\n')

	if _, err := r.w.Write(line); err != nil {
		r.err = fmt.Errorf("journal write: %w", err)
		return r.err
	}
	return nil
}

// Flush pushes buffered lines to the underlying writer
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	if err := r.w.Flush(); err != nil {
		r.err = fmt.Errorf("journal flush: %w", err)
	}
	return r.err
}

// Replayer reads a journal written by Recorder
type Replayer struct {
	scanner *bufio.Scanner
	line    int
}

// NewReplayer reads records from r
func NewReplayer(r io.Reader) *Replayer {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 4096), maxRecordSize)
	return &Replayer{scanner: s}
}

// Next returns the next record, skipping blank lines; io.EOF at the end
func (p *Replayer) Next() (Entry, error) {
	for p.scanner.Scan() {
		p.line++
		raw := bytes.TrimSpace(p.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		ev, err := Unmarshal(raw)
		if err != nil {
			return Entry{}, fmt.Errorf("journal line %d: %w", p.line, err)
		}
		t := gjson.GetBytes(raw, "t")
		if t.Type != gjson.Number || t.Num < 0 || float64(t.Int()) != t.Num {
			return Entry{}, fmt.Errorf("journal line %d: %w", p.line, violation("t: expected non-negative integer"))
		}
		return Entry{Offset: time.Duration(t.Int()) * time.Millisecond, Event: ev}, nil
	}
	if err := p.scanner.Err(); err != nil {
		return Entry{}, fmt.Errorf("journal read: %w", err)
	}
	return Entry{}, io.EOF
}

// Play re-injects replayable records with their recorded pacing until the
// journal ends or ctx is done. It returns the number of events injected.
func (p *Replayer) Play(ctx context.Context, inject func(WindowEvent)) (int, error) {
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	count := 0
	for {
		entry, err := p.Next()
		if errors.Is(err, io.EOF) {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if !Replayable(entry.Event) {
			continue
		}

		if wait := time.Until(start.Add(entry.Offset)); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return count, ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return count, ctx.Err()
		}

		inject(entry.Event)
		count++
	}
}
