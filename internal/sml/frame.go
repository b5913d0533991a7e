package sml

import (
	"bytes"

	"powercounter/internal/logging"
)

// escape is the 4-byte escape sequence that prefixes both the start and
// end sentinels, and that is doubled wherever it appears literally in
// message data.
var escape = []byte{0x1b, 0x1b, 0x1b, 0x1b}

var (
	startSentinel  = append(append([]byte{}, escape...), 0x01, 0x01, 0x01, 0x01)
	doubledEscape  = append(append([]byte{}, escape...), escape...)
	startAfterEsc  = []byte{0x01, 0x01, 0x01, 0x01}
	endMarkerByte  = byte(0x1a)
)

// maxPrestartBuffer bounds how much data FrameExtractor will hold while
// still looking for a start sentinel, so a byte source that never sends
// a valid telegram can't grow the buffer without bound. Only the most
// recent bytes are kept; a sentinel can't straddle a discarded boundary
// because it is re-scanned from scratch on every call.
const maxPrestartBuffer = 64 * 1024

type frameState int

const (
	waitStart frameState = iota
	waitEnd
)

// FrameExtractor pulls complete SML file byte-ranges (start sentinel
// through end sentinel, CRC and all) out of an arbitrarily chunked
// byte stream. It is stateful: feed it chunks in order via AddBytes.
type FrameExtractor struct {
	state  frameState
	buffer []byte
	sink   logging.Sink
}

// NewFrameExtractor returns a FrameExtractor that reports recoverable
// framing problems (stray escape sequences, unexpected restarts)
// through sink. A nil sink discards them.
func NewFrameExtractor(sink logging.Sink) *FrameExtractor {
	if sink == nil {
		sink = logging.Discard
	}
	return &FrameExtractor{state: waitStart, sink: sink}
}

// AddBytes appends chunk to the extractor's internal buffer and
// returns every complete SML file found as a result. Files are
// returned in the order they complete; partial data is retained
// across calls.
func (e *FrameExtractor) AddBytes(chunk []byte) [][]byte {
	e.buffer = append(e.buffer, chunk...)

	var files [][]byte
	for {
		if e.state == waitStart {
			idx := indexFrom(e.buffer, startSentinel, 0)
			if idx < 0 {
				e.trimPrestart()
				return files
			}
			e.buffer = e.buffer[idx:]
			e.state = waitEnd
		}

		file, ok := e.scanForEnd()
		if !ok {
			return files
		}
		files = append(files, file)
	}
}

// scanForEnd looks for the end sentinel in the current buffer,
// tolerating (and logging) doubled escape sequences and stray start
// sentinels along the way, per the SML wire format's 4-byte-aligned
// escape scanning rule.
func (e *FrameExtractor) scanForEnd() ([]byte, bool) {
	candidate := findAtFourByteBoundary(e.buffer, escape, 8)
	for candidate >= 0 && candidate+8 <= len(e.buffer) {
		window := e.buffer[candidate : candidate+8]

		switch {
		case bytes.HasPrefix(window, doubledEscape):
			candidate = findAtFourByteBoundary(e.buffer, escape, candidate+8)

		case window[4] == endMarkerByte:
			end := candidate + 8
			file := make([]byte, end)
			copy(file, e.buffer[:end])
			e.buffer = e.buffer[end:]
			e.state = waitStart
			return file, true

		case bytes.HasPrefix(window[4:], startAfterEsc):
			e.sink.Error("sml: start sentinel found while waiting for end sentinel, restarting frame", "offset", candidate)
			e.buffer = e.buffer[candidate:]
			candidate = findAtFourByteBoundary(e.buffer, escape, 8)

		default:
			e.sink.Error("sml: unexpected escape sequence in frame body", "offset", candidate)
			candidate = findAtFourByteBoundary(e.buffer, escape, candidate+4)
		}
	}
	return nil, false
}

// trimPrestart bounds the buffer while waiting for a start sentinel,
// discarding the oldest bytes once the cap is exceeded.
func (e *FrameExtractor) trimPrestart() {
	if len(e.buffer) > maxPrestartBuffer {
		e.buffer = e.buffer[len(e.buffer)-maxPrestartBuffer:]
	}
}

// findAtFourByteBoundary returns the first index >= start at which seq
// occurs in buf and whose absolute offset is a multiple of 4, or -1.
// SML sentinels and escape sequences are always 4-byte aligned within
// a file; byte-for-byte matches at other offsets are message payload
// that happens to contain the same bytes, not protocol structure.
func findAtFourByteBoundary(buf, seq []byte, start int) int {
	idx := indexFrom(buf, seq, start)
	for idx >= 0 && idx%4 != 0 {
		idx = indexFrom(buf, seq, idx+(4-idx%4))
	}
	return idx
}

func indexFrom(buf, seq []byte, start int) int {
	if start >= len(buf) {
		return -1
	}
	i := bytes.Index(buf[start:], seq)
	if i < 0 {
		return -1
	}
	return start + i
}
