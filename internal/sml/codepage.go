package sml

import (
	"golang.org/x/text/encoding/charmap"
)

// decodeISO885915 decodes b as ISO-8859-15, the codepage SML meters
// almost always declare. ISO-8859-15 maps every byte value to some
// rune, so this never fails; a malformed upstream field just yields an
// odd-looking but harmless string instead of aborting decoding.
func decodeISO885915(b []byte) string {
	out, _ := charmap.ISO8859_15.NewDecoder().Bytes(b)
	return string(out)
}
