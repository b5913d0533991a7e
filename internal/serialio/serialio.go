// Package serialio opens the byte source the processor reads from:
// either an infrared optical head attached as a 9600-8N1 serial
// device, or a capture file for replay.
package serialio

import (
	"fmt"
	"io"
	"os"

	serial "github.com/daedaluz/goserial"

	"powercounter/internal/logging"
)

// OpenDevice opens path as a serial port at 9600 baud, 8 data bits, no
// parity, 1 stop bit, and flushes both buffers before handing it back
// — mirroring how the meter's infrared head is known to need a clean
// start after being opened by a previous process.
func OpenDevice(path string, sink logging.Sink) (*serial.Port, error) {
	if sink == nil {
		sink = logging.Discard
	}

	sink.Debug("serialio: opening serial port", "device", path, "baud", 9600)

	port, err := serial.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("serialio: open %s: %w", path, err)
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("serialio: get attrs on %s: %w", path, err)
	}

	attrs.MakeRaw()
	attrs.SetSpeed(serial.B9600)
	attrs.Cflag &^= serial.CSTOPB | serial.PARENB
	attrs.Cflag |= serial.CS8 | serial.CREAD | serial.CLOCAL

	if err := port.SetAttr(serial.TCSANOW, attrs); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialio: set attrs on %s: %w", path, err)
	}

	if err := port.Flush(serial.TCIOFLUSH); err != nil {
		port.Close()
		return nil, fmt.Errorf("serialio: flush %s: %w", path, err)
	}

	sink.Debug("serialio: serial port opened")
	return port, nil
}

// OpenInput opens inputFile for replay if non-empty, otherwise opens
// device as a live serial port. Exactly one of the two is used: when
// the CLI is given both --input-file and --device, the file wins.
func OpenInput(device, inputFile string, sink logging.Sink) (io.ReadCloser, error) {
	if sink == nil {
		sink = logging.Discard
	}

	if inputFile != "" {
		sink.Debug("serialio: opening capture file for replay", "path", inputFile)
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("serialio: open input file %s: %w", inputFile, err)
		}
		return f, nil
	}

	return OpenDevice(device, sink)
}
