// Package sml decodes SML (Smart Message Language) electricity-meter
// telegrams: frame extraction, the TLV field grammar, and the message
// shapes a meter actually sends.
package sml

import (
	"fmt"

	"powercounter/internal/logging"
)

// Kind identifies which SML TLV alternative a Field holds.
type Kind int

const (
	// KindNull marks a field whose type nibble this decoder does not
	// recognize, or a Boolean/Integer field with no payload byte. The
	// bytes are skipped rather than rejecting the whole message.
	KindNull Kind = iota
	KindOctetString
	KindBoolean
	KindInteger
	KindUnsigned
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindOctetString:
		return "OctetString"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindUnsigned:
		return "Unsigned"
	case KindList:
		return "List"
	default:
		return "Null"
	}
}

// type nibbles, the high 3 bits of a TLV header byte (bit 0x80 is the
// length-continuation flag and is masked off before comparing).
const (
	typeOctetString = 0x00
	typeBoolean     = 0x40
	typeInteger     = 0x50
	typeUnsigned    = 0x60
	typeList        = 0x70
)

// Field is a decoded SML TLV value. Exactly one of the scalar members
// is meaningful, selected by Kind; List holds the children when Kind
// is KindList.
type Field struct {
	Kind   Kind
	Octets []byte
	Bool   bool
	Int    int64
	Uint   uint64
	List   []Field
}

// IsOptionalNone reports whether f is the SML "optional, absent" marker:
// an OctetString field of length zero.
func (f Field) IsOptionalNone() bool {
	return f.Kind == KindOctetString && len(f.Octets) == 0
}

// decodeField parses one TLV value from buf starting at start, honoring
// multi-byte length headers (the 0x80 continuation bit) and recursing
// into list elements. It returns the offset just past the value.
//
// A type nibble this decoder doesn't recognize does not abort decoding:
// the value is reported through sink and the field becomes KindNull,
// advancing by its declared length so the sibling fields stay aligned.
func decodeField(buf []byte, start int, sink logging.Sink) (next int, field Field, err error) {
	if sink == nil {
		sink = logging.Discard
	}

	if start >= len(buf) {
		return start, Field{}, fmt.Errorf("sml: truncated field header at offset %d", start)
	}

	i := start
	h := buf[i]
	typ := h & 0x70
	length := int(h & 0x0F)

	for h&0x80 != 0 {
		i++
		if i >= len(buf) {
			return i, Field{}, fmt.Errorf("sml: truncated multi-byte field header at offset %d", start)
		}
		h = buf[i]
		length = (length << 4) | int(h&0x0F)
	}
	headerEnd := i + 1

	if typ == typeList {
		count := length
		cur := headerEnd
		items := make([]Field, 0, count)
		for k := 0; k < count; k++ {
			var item Field
			cur, item, err = decodeField(buf, cur, sink)
			if err != nil {
				return cur, Field{}, err
			}
			items = append(items, item)
		}
		return cur, Field{Kind: KindList, List: items}, nil
	}

	switch typ {
	case typeOctetString, typeBoolean, typeInteger, typeUnsigned:
		if length == 0 {
			length = 1
		}
		end := start + length
		if end > len(buf) {
			return len(buf), Field{}, fmt.Errorf("sml: scalar field at offset %d declares length %d past end of buffer", start, length)
		}
		payload := buf[headerEnd:end]

		switch typ {
		case typeOctetString:
			return end, Field{Kind: KindOctetString, Octets: payload}, nil
		case typeBoolean:
			if len(payload) == 0 {
				sink.Error("sml: boolean field has no payload byte, skipping", "offset", start)
				return end, Field{Kind: KindNull}, nil
			}
			return end, Field{Kind: KindBoolean, Bool: payload[0] != 0}, nil
		case typeInteger:
			if len(payload) == 0 {
				sink.Error("sml: integer field has no payload bytes, skipping", "offset", start)
				return end, Field{Kind: KindNull}, nil
			}
			return end, Field{Kind: KindInteger, Int: decodeSigned(payload)}, nil
		case typeUnsigned:
			return end, Field{Kind: KindUnsigned, Uint: decodeUnsigned(payload)}, nil
		}
	}

	sink.Error("sml: unrecognized TLV type nibble, skipping field", "type", fmt.Sprintf("%#x", typ), "offset", start)
	end := start + length
	if length == 0 {
		end = start + 1
	}
	if end > len(buf) {
		end = len(buf)
	}
	return end, Field{Kind: KindNull}, nil
}

// decodeSigned interprets b as a big-endian two's-complement integer of
// 1 to 8 bytes, sign-extended from its first byte.
func decodeSigned(b []byte) int64 {
	v := int64(int8(b[0]))
	for _, by := range b[1:] {
		v = (v << 8) | int64(by)
	}
	return v
}

// decodeUnsigned interprets b as a big-endian unsigned integer of 1 to
// 8 bytes.
func decodeUnsigned(b []byte) uint64 {
	var v uint64
	for _, by := range b {
		v = (v << 8) | uint64(by)
	}
	return v
}
