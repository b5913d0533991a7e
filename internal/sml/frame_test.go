package sml

import (
	"bytes"
	"testing"

	"powercounter/internal/logging"
)

func TestFrameExtractorYieldsNothingUntilEndSentinelArrives(t *testing.T) {
	fx := NewFrameExtractor(logging.Discard)

	start := []byte{0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01}
	body := []byte{0x76, 0x01, 0x01, 0x01}
	end := []byte{0x1b, 0x1b, 0x1b, 0x1b, 0x1a, 0x01, 0x02, 0x03}

	if got := fx.AddBytes(start); len(got) != 0 {
		t.Fatalf("after start sentinel: got %d files; want 0", len(got))
	}
	if got := fx.AddBytes(body); len(got) != 0 {
		t.Fatalf("after body: got %d files; want 0", len(got))
	}

	got := fx.AddBytes(end)
	if len(got) != 1 {
		t.Fatalf("after end sentinel: got %d files; want 1", len(got))
	}

	want := append(append(append([]byte{}, start...), body...), end...)
	if !bytes.Equal(got[0], want) {
		t.Errorf("extracted file = %x; want %x", got[0], want)
	}
}

func TestFrameExtractorHandlesDoubledEscapeInBody(t *testing.T) {
	fx := NewFrameExtractor(logging.Discard)

	start := []byte{0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01}
	// an escaped literal 1B1B1B1B 1A010203 inside the body, followed by
	// the real end sentinel.
	body := []byte{
		0x1b, 0x1b, 0x1b, 0x1b, 0x1b, 0x1b, 0x1b, 0x1b, // doubled escape
		0x1a, 0x01, 0x02, 0x03, // escaped payload tail
		0x1b, 0x1b, 0x1b, 0x1b, 0x1a, 0x01, 0x02, 0x03, // true end sentinel
	}

	all := append(append([]byte{}, start...), body...)
	got := fx.AddBytes(all)
	if len(got) != 1 {
		t.Fatalf("got %d files; want 1", len(got))
	}
	if !bytes.Equal(got[0], all) {
		t.Errorf("extracted file = %x; want %x", got[0], all)
	}
}

func TestFrameExtractorSplitAcrossManyChunks(t *testing.T) {
	fx := NewFrameExtractor(logging.Discard)

	full := []byte{
		0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01,
		0x76, 0x00, 0x00, 0x00,
		0x1b, 0x1b, 0x1b, 0x1b, 0x1a, 0x00, 0xaa, 0xbb,
	}

	var got [][]byte
	for i := 0; i < len(full); i++ {
		got = append(got, fx.AddBytes(full[i:i+1])...)
	}

	if len(got) != 1 {
		t.Fatalf("got %d files across byte-at-a-time feed; want 1", len(got))
	}
	if !bytes.Equal(got[0], full) {
		t.Errorf("extracted file = %x; want %x", got[0], full)
	}
}

func TestFrameExtractorSkipsNoiseBeforeStartSentinel(t *testing.T) {
	fx := NewFrameExtractor(logging.Discard)

	noise := []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}
	full := []byte{
		0x1b, 0x1b, 0x1b, 0x1b, 0x01, 0x01, 0x01, 0x01,
		0x76, 0x00, 0x00, 0x00,
		0x1b, 0x1b, 0x1b, 0x1b, 0x1a, 0x00, 0xaa, 0xbb,
	}

	got := fx.AddBytes(append(append([]byte{}, noise...), full...))
	if len(got) != 1 {
		t.Fatalf("got %d files; want 1", len(got))
	}
	if !bytes.Equal(got[0], full) {
		t.Errorf("extracted file = %x; want %x", got[0], full)
	}
}
