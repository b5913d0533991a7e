// Package logging provides the Sink capability the decoder core logs
// through, plus a slog-backed default implementation and a decorator
// that suppresses repeated warnings/errors.
package logging

import (
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Sink is the capability set the decoder core depends on. Callers pass
// a concrete Sink into the processor; the core never reaches for a
// package-level logger.
type Sink interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Discard is a Sink that drops every message. Useful in tests.
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Debug(string, ...any) {}
func (discardSink) Warn(string, ...any)  {}
func (discardSink) Error(string, ...any) {}

// slogSink adapts a *slog.Logger to the Sink interface.
type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink builds a Sink backed by log/slog. verbose enables debug
// output; silent raises the floor to error-only. json selects the JSON
// handler instead of the default text handler.
func NewSlogSink(w io.Writer, verbose, silent, json bool) Sink {
	level := slog.LevelInfo
	switch {
	case silent:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &slogSink{logger: slog.New(handler)}
}

func (s *slogSink) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *slogSink) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *slogSink) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// SuppressingSink wraps a Sink and suppresses repeated identical
// Warn/Error messages within a configurable window, folding the number
// of suppressed occurrences into the next message that is actually
// emitted. Debug is passed through unchanged.
type SuppressingSink struct {
	next   Sink
	window time.Duration

	mu    sync.Mutex
	state map[string]*suppressionState
}

type suppressionState struct {
	until     time.Time
	numSuppr int
}

// NewSuppressingSink wraps next with duplicate suppression over window.
// A non-positive window disables suppression entirely.
func NewSuppressingSink(next Sink, window time.Duration) *SuppressingSink {
	return &SuppressingSink{
		next:   next,
		window: window,
		state:  make(map[string]*suppressionState),
	}
}

func (s *SuppressingSink) Debug(msg string, args ...any) {
	s.next.Debug(msg, args...)
}

func (s *SuppressingSink) Warn(msg string, args ...any) {
	if text, ok := s.gate(msg); ok {
		s.next.Warn(text, args...)
	}
}

func (s *SuppressingSink) Error(msg string, args ...any) {
	if text, ok := s.gate(msg); ok {
		s.next.Error(text, args...)
	}
}

// gate decides whether msg should be emitted now, and returns the text
// to emit (possibly annotated with a suppressed-count suffix).
func (s *SuppressingSink) gate(msg string) (string, bool) {
	if s.window <= 0 {
		return msg, true
	}

	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	st, seen := s.state[msg]
	if !seen {
		s.state[msg] = &suppressionState{until: now.Add(s.window)}
		return msg, true
	}

	if now.Before(st.until) {
		st.numSuppr++
		return "", false
	}

	text := msg
	if st.numSuppr > 0 {
		text = msg + suppressedSuffix(st.numSuppr)
	}
	st.until = now.Add(s.window)
	st.numSuppr = 0
	return text, true
}

func suppressedSuffix(n int) string {
	if n == 1 {
		return " (suppressed 1 time before)"
	}
	return " (suppressed " + strconv.Itoa(n) + " times before)"
}
