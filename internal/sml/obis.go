package sml

import (
	"fmt"
	"strconv"
	"strings"
)

// obisName renders a 6-byte OBIS identifier (media-channel:class.type.
// tariff*role) in its conventional dotted notation, e.g. "1-0:1.8.0*255".
// An obj_name of any other length has no OBIS structure to render, so it
// falls back to a byte-repr instead of being treated as invalid.
func obisName(b []byte) string {
	if len(b) != 6 {
		return byteRepr(b)
	}
	return fmt.Sprintf("%d-%d:%d.%d.%d*%d", b[0], b[1], b[2], b[3], b[4], b[5])
}

// byteRepr renders b the way a default byte-string representation would:
// printable ASCII verbatim (backslash and single quote backslash-escaped),
// \n, \r and \t as those escapes, everything else as a \xHH escape,
// wrapped in b'...' quoting.
func byteRepr(b []byte) string {
	var sb strings.Builder
	sb.WriteString("b'")
	for _, c := range b {
		switch {
		case c == '\\' || c == '\'':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, `\x%02x`, c)
		}
	}
	sb.WriteString("'")
	return sb.String()
}

// unitName maps an SML physical-unit code (IEC 62056-61 / DLMS) to its
// display string. Only the units this decoder's callers care about
// (active energy and active power) get friendly names; anything else
// is rendered as its numeric code so it's still visible, not dropped.
func unitName(code uint64) string {
	switch code {
	case 30:
		return "Wh"
	case 27:
		return "W"
	default:
		return strconv.FormatUint(code, 10)
	}
}

// scaledValue applies an SML scaler (a power-of-ten exponent) to a raw
// integer register value, returning a float suitable for display or
// publishing.
func scaledValue(raw int64, scaler int64) float64 {
	v := float64(raw)
	if scaler == 0 {
		return v
	}
	return v * pow10(scaler)
}

func pow10(exp int64) float64 {
	result := 1.0
	if exp >= 0 {
		for i := int64(0); i < exp; i++ {
			result *= 10
		}
		return result
	}
	for i := int64(0); i < -exp; i++ {
		result *= 10
	}
	return 1 / result
}
