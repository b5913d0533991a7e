// Package processor drives the SML decoder stack over a byte source:
// it reads fixed-size chunks, feeds them to the frame extractor,
// decodes each completed file, and invokes the caller's callbacks in
// strict file/message order.
package processor

import (
	"context"
	"errors"
	"io"

	"powercounter/internal/logging"
	"powercounter/internal/sml"
)

// chunkSize is the nominal read size, matching what real infrared
// read heads deliver per poll.
const chunkSize = 128

// FileFunc is invoked once per successfully framed SML file, regardless
// of CRC outcome. file is the raw byte range as it arrived on the
// wire; decoded.ValidCRC and decoded.Messages report the outcome.
// Implementations must not retain file or decoded beyond the call.
type FileFunc func(file []byte, decoded *sml.File)

// ObisFunc is invoked once per GetListResponse entry whose unit is "W"
// or "Wh", with the entry's scaled value already applied.
type ObisFunc func(objName string, value float64, unit string)

// Run reads from r in chunkSize blocks, decodes complete SML files as
// they arrive, and calls onFile/onObis (either may be nil) in the
// order files and their entries appear on the wire. It returns when r
// returns io.EOF, when ctx is cancelled, or on the first non-EOF read
// error.
//
// Run takes ownership of neither r's lifecycle nor its closing; the
// caller opens and closes the underlying device or file.
func Run(ctx context.Context, r io.Reader, sink logging.Sink, onFile FileFunc, onObis ObisFunc) error {
	if sink == nil {
		sink = logging.Discard
	}

	sink.Debug("processor: starting")

	extractor := sml.NewFrameExtractor(sink)
	buf := make([]byte, chunkSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			for _, raw := range extractor.AddBytes(buf[:n]) {
				dispatch(raw, sink, onFile, onObis)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				sink.Debug("processor: input exhausted")
				return nil
			}
			return err
		}
	}
}

func dispatch(raw []byte, sink logging.Sink, onFile FileFunc, onObis ObisFunc) {
	decoded := sml.DecodeFile(raw, sink)

	if onFile != nil {
		onFile(raw, decoded)
	}

	if onObis == nil {
		return
	}

	for _, msg := range decoded.Messages {
		list, ok := msg.(sml.GetListResponse)
		if !ok {
			continue
		}
		for _, entry := range list.Entries {
			unit := entry.Unit()
			if unit != "W" && unit != "Wh" {
				continue
			}
			value, ok := entry.ScaledValue()
			if !ok {
				continue
			}
			onObis(entry.ObjName, value, unit)
		}
	}
}
