package sml

import (
	"testing"

	"powercounter/internal/logging"
)

func TestBindListEntryNonSixByteObjNameIsKeptWithByteRepr(t *testing.T) {
	f := Field{Kind: KindList, List: []Field{
		{Kind: KindOctetString, Octets: []byte{0x01, 0x02}}, // obj_name, not 6 bytes
		{Kind: KindOctetString},                             // status: OptionalNone
		{Kind: KindOctetString},                             // val_time: OptionalNone
		{Kind: KindOctetString},                             // unit: OptionalNone
		{Kind: KindOctetString},                             // scaler: OptionalNone
		{Kind: KindUnsigned, Uint: 42},                      // value
		{Kind: KindOctetString},                             // value_signature: OptionalNone
	}}

	entry, ok := bindListEntry(f, logging.Discard)
	if !ok {
		t.Fatal("bindListEntry ok = false; want true (non-6-byte obj_name must not drop the entry)")
	}
	if entry.ObjName != `b'\x01\x02'` {
		t.Errorf("ObjName = %q; want b'\\x01\\x02'", entry.ObjName)
	}
	if entry.Value.Uint != 42 {
		t.Errorf("Value.Uint = %d; want 42", entry.Value.Uint)
	}
}
