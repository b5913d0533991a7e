package sml

import (
	"bytes"
	"testing"

	"powercounter/internal/logging"
)

func TestDecodeFieldScalars(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want Field
		next int
	}{
		{"negative int8", []byte{0x52, 0xF6}, Field{Kind: KindInteger, Int: -10}, 2},
		{"negative int16", []byte{0x53, 0xFB, 0x2E}, Field{Kind: KindInteger, Int: -1234}, 3},
		{"unsigned", []byte{0x62, 0xF6}, Field{Kind: KindUnsigned, Uint: 0xF6}, 2},
		{"boolean true", []byte{0x42, 0x01}, Field{Kind: KindBoolean, Bool: true}, 2},
		{"boolean false", []byte{0x42, 0x00}, Field{Kind: KindBoolean, Bool: false}, 2},
		{"octet string", []byte{0x02, 0xAA}, Field{Kind: KindOctetString, Octets: []byte{0xAA}}, 2},
		{"optional none", []byte{0x01}, Field{Kind: KindOctetString, Octets: nil}, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			next, got, err := decodeField(c.in, 0, logging.Discard)
			if err != nil {
				t.Fatalf("decodeField(%x) error: %v", c.in, err)
			}
			if next != c.next {
				t.Errorf("next = %d; want %d", next, c.next)
			}
			if got.Kind != c.want.Kind {
				t.Fatalf("Kind = %v; want %v", got.Kind, c.want.Kind)
			}
			switch c.want.Kind {
			case KindInteger:
				if got.Int != c.want.Int {
					t.Errorf("Int = %d; want %d", got.Int, c.want.Int)
				}
			case KindUnsigned:
				if got.Uint != c.want.Uint {
					t.Errorf("Uint = %d; want %d", got.Uint, c.want.Uint)
				}
			case KindBoolean:
				if got.Bool != c.want.Bool {
					t.Errorf("Bool = %v; want %v", got.Bool, c.want.Bool)
				}
			case KindOctetString:
				if !bytes.Equal(got.Octets, c.want.Octets) {
					t.Errorf("Octets = %x; want %x", got.Octets, c.want.Octets)
				}
			}
		})
	}
}

func TestDecodeFieldLongInteger(t *testing.T) {
	in := []byte{0x55, 0xF8, 0xA4, 0x32, 0xEB}
	next, got, err := decodeField(in, 0, logging.Discard)
	if err != nil {
		t.Fatalf("decodeField error: %v", err)
	}
	if next != 5 {
		t.Fatalf("next = %d; want 5", next)
	}
	if got.Kind != KindInteger || got.Int != -123456789 {
		t.Errorf("got %+v; want Integer -123456789", got)
	}
}

func TestDecodeFieldList(t *testing.T) {
	// a 2-element list: Unsigned(1), OctetString("ok")
	in := []byte{0x72, 0x62, 0x01, 0x03, 'o', 'k'}
	next, got, err := decodeField(in, 0, logging.Discard)
	if err != nil {
		t.Fatalf("decodeField error: %v", err)
	}
	if next != len(in) {
		t.Fatalf("next = %d; want %d", next, len(in))
	}
	if got.Kind != KindList || len(got.List) != 2 {
		t.Fatalf("got %+v; want 2-element list", got)
	}
	if got.List[0].Kind != KindUnsigned || got.List[0].Uint != 1 {
		t.Errorf("List[0] = %+v; want Unsigned(1)", got.List[0])
	}
	if got.List[1].Kind != KindOctetString || string(got.List[1].Octets) != "ok" {
		t.Errorf("List[1] = %+v; want OctetString(ok)", got.List[1])
	}
}

func TestDecodeFieldUnknownTypeNibbleIsTolerated(t *testing.T) {
	in := []byte{0x12, 0x01, 0x99}
	next, got, err := decodeField(in, 0, logging.Discard)
	if err != nil {
		t.Fatalf("decodeField error: %v", err)
	}
	if next != 2 {
		t.Errorf("next = %d; want 2", next)
	}
	if got.Kind != KindNull {
		t.Errorf("Kind = %v; want Null", got.Kind)
	}
}

func TestDecodeFieldEmptyBooleanIsTolerated(t *testing.T) {
	in := []byte{0x40}
	next, got, err := decodeField(in, 0, logging.Discard)
	if err != nil {
		t.Fatalf("decodeField error: %v", err)
	}
	if next != 1 {
		t.Errorf("next = %d; want 1", next)
	}
	if got.Kind != KindNull {
		t.Errorf("Kind = %v; want Null", got.Kind)
	}
}

func TestDecodeFieldEmptyIntegerIsTolerated(t *testing.T) {
	in := []byte{0x50}
	next, got, err := decodeField(in, 0, logging.Discard)
	if err != nil {
		t.Fatalf("decodeField error: %v", err)
	}
	if next != 1 {
		t.Errorf("next = %d; want 1", next)
	}
	if got.Kind != KindNull {
		t.Errorf("Kind = %v; want Null", got.Kind)
	}
}

func TestDecodeFieldTruncatedHeaderErrors(t *testing.T) {
	_, _, err := decodeField(nil, 0, logging.Discard)
	if err == nil {
		t.Fatal("expected error for empty buffer")
	}
}

func TestDecodeFieldTruncatedPayloadErrors(t *testing.T) {
	in := []byte{0x55, 0x01} // declares 4 payload bytes, only 1 present
	_, _, err := decodeField(in, 0, logging.Discard)
	if err == nil {
		t.Fatal("expected error for truncated payload")
	}
}
