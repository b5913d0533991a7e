package logging

import (
	"testing"
	"time"
)

type recordingSink struct {
	warns []string
}

func (r *recordingSink) Debug(string, ...any) {}
func (r *recordingSink) Warn(msg string, args ...any) {
	r.warns = append(r.warns, msg)
}
func (r *recordingSink) Error(string, ...any) {}

func TestSuppressingSinkDropsDuplicatesWithinWindow(t *testing.T) {
	rec := &recordingSink{}
	sink := NewSuppressingSink(rec, time.Minute)

	sink.Warn("boom")
	sink.Warn("boom")
	sink.Warn("boom")

	if len(rec.warns) != 1 {
		t.Fatalf("got %d warnings; want 1, warns=%v", len(rec.warns), rec.warns)
	}
}

func TestSuppressingSinkAnnotatesNextMessageAfterWindow(t *testing.T) {
	rec := &recordingSink{}
	sink := NewSuppressingSink(rec, time.Millisecond)

	sink.Warn("boom")
	sink.Warn("boom")
	time.Sleep(5 * time.Millisecond)
	sink.Warn("boom")

	if len(rec.warns) != 2 {
		t.Fatalf("got %d warnings; want 2, warns=%v", len(rec.warns), rec.warns)
	}
	want := "boom (suppressed 1 time before)"
	if rec.warns[1] != want {
		t.Errorf("second warning = %q; want %q", rec.warns[1], want)
	}
}

func TestSuppressingSinkDisabledWithZeroWindow(t *testing.T) {
	rec := &recordingSink{}
	sink := NewSuppressingSink(rec, 0)

	sink.Warn("boom")
	sink.Warn("boom")

	if len(rec.warns) != 2 {
		t.Fatalf("got %d warnings; want 2 (suppression disabled)", len(rec.warns))
	}
}
