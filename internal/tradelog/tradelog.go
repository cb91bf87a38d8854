// Package tradelog is the human-readable side channel of a backtest run: a
// buffered, append-only file sink and the slog logger that writes to it.
package tradelog

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// DefaultThreshold is the number of buffered bytes that triggers a flush.
const DefaultThreshold = 4096

// Sink buffers writes and forwards them to the underlying writer once the
// buffer reaches Threshold bytes, and unconditionally on Flush or Close.
type Sink struct {
	mu        sync.Mutex
	w         io.Writer
	c         io.Closer
	buf       bytes.Buffer
	threshold int
}

// NewSink wraps w. A threshold <= 0 uses DefaultThreshold.
func NewSink(w io.Writer, threshold int) *Sink {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	s := &Sink{w: w, threshold: threshold}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// OpenFile truncates path and returns a sink writing to it.
func OpenFile(path string, threshold int) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("tradelog: %w", err)
	}
	return NewSink(f, threshold), nil
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, _ := s.buf.Write(p)
	if s.buf.Len() >= s.threshold {
		if err := s.flushLocked(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Buffered returns the number of bytes not yet written through.
func (s *Sink) Buffered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len()
}

func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Sink) flushLocked() error {
	if s.buf.Len() == 0 {
		return nil
	}
	_, err := s.w.Write(s.buf.Bytes())
	s.buf.Reset()
	return err
}

// Close flushes and closes the underlying writer when it is a Closer.
func (s *Sink) Close() error {
	err := s.Flush()
	if s.c != nil {
		if cerr := s.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Level is the verbosity of the trade log.
type Level int

const (
	// None disables the trade log.
	None Level = iota
	// Errors logs only rejected operations (double entry, nothing to
	// exit, insufficient funds).
	Errors
	// All also logs every entry and exit.
	All
)

func (l Level) String() string {
	switch l {
	case Errors:
		return "info"
	case All:
		return "all"
	default:
		return "none"
	}
}

// ParseLevel accepts none/off, info/errors and all/verbose.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return None, nil
	case "info", "errors", "error", "warn":
		return Errors, nil
	case "all", "verbose", "debug":
		return All, nil
	default:
		return None, fmt.Errorf("unknown log level %q (supported: none, info, all)", s)
	}
}

// NewLogger returns a text logger writing to w at the given verbosity.
// Rejections are logged at WARN, entries and exits at INFO.
func NewLogger(level Level, w io.Writer) *slog.Logger {
	if level == None || w == nil {
		return Discard()
	}

	slevel := slog.LevelWarn
	if level == All {
		slevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slevel}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
