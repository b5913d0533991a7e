package sml

import (
	"bytes"

	"powercounter/internal/crc"
	"powercounter/internal/logging"
)

// File is one decoded SML transmission: a start sentinel, zero or more
// messages, and an end sentinel with trailing CRC, as produced by
// FrameExtractor and fed through DecodeFile.
type File struct {
	// Raw is the original, un-collapsed byte range as handed to
	// DecodeFile.
	Raw []byte
	// ValidCRC reports whether the file-level CRC (the final two
	// bytes of the end sentinel) matched. Messages is empty when
	// this is false: a file that fails its own integrity check isn't
	// trustworthy enough to decode further.
	ValidCRC bool
	Messages []Message
}

// DecodeFile collapses escape-doubling, verifies the file-level CRC,
// and decodes every message in raw, which must be a single complete
// range as returned by FrameExtractor (start sentinel through end
// sentinel inclusive).
func DecodeFile(raw []byte, sink logging.Sink) *File {
	if sink == nil {
		sink = logging.Discard
	}

	f := &File{Raw: raw}

	data := bytes.ReplaceAll(raw, doubledEscape, escape)

	if len(data) < 16 {
		sink.Error("sml: file shorter than the minimum start+end sentinel length")
		return f
	}

	payload := data[:len(data)-2]
	provided := uint16(data[len(data)-2])<<8 | uint16(data[len(data)-1])
	calculated := crc.X25(payload)
	if calculated != provided {
		sink.Error("sml: file CRC mismatch, discarding file", "calculated", calculated, "provided", provided)
		return f
	}
	f.ValidCRC = true

	f.Messages = extractMessages(data, sink)
	return f
}

// extractMessages walks the decoded, escape-collapsed file body between
// the two 8-byte sentinels, decoding one SML_Message list per
// iteration and verifying its embedded CRC against the bytes it
// actually covers.
func extractMessages(data []byte, sink logging.Sink) []Message {
	var messages []Message

	readIndex := 8
	endIndex := len(data) - 8

	for readIndex < endIndex {
		start := readIndex

		next, field, err := decodeField(data, readIndex, sink)
		if err != nil {
			sink.Error("sml: failed to decode message envelope, stopping", "error", err.Error())
			break
		}
		readIndex = next

		raw, ok := bindRawMessage(field, sink)
		if !ok {
			continue
		}

		if raw.HasCRC {
			crcEnd := readIndex - 4
			if crcEnd < start {
				sink.Error("sml: message too short to contain its own CRC, dropping")
				continue
			}
			calculated := crc.X25(data[start:crcEnd])
			if calculated != uint16(raw.CRC) {
				sink.Error("sml: message CRC mismatch, dropping", "calculated", calculated, "provided", raw.CRC)
				continue
			}
		} else {
			sink.Warn("sml: message has no crc16, accepting without verification")
		}

		msg, ok := bindMessage(raw, sink)
		if !ok {
			continue
		}
		messages = append(messages, msg)
	}

	return messages
}
