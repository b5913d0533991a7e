package commands

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"powercounter/internal/serialio"
)

const captureChunkSize = 64

var captureCmd = &cobra.Command{
	Use:   "capture OUTPUT_FILE",
	Short: "Save the raw serial stream to a file, unprocessed",
	Long: `capture reads straight from the serial device and writes every byte to
OUTPUT_FILE without any decoding, for later replay with --input-file.
Press Ctrl-C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, args []string) error {
	outputPath := args[0]
	fmt.Printf("Saving data into file %s. Press Ctrl-C to stop.\n", outputPath)

	port, err := serialio.OpenDevice(device, sink)
	if err != nil {
		sink.Error("capture: failed to open serial device", "error", err.Error())
		return RuntimeError{}
	}
	defer port.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		sink.Error("capture: failed to create output file", "error", err.Error())
		return RuntimeError{}
	}
	defer out.Close()

	// Ctrl-C closes the port to unblock the pending read.
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	stopped := make(chan struct{})
	go func() {
		select {
		case <-interrupted:
			port.Close()
		case <-stopped:
		}
	}()
	defer close(stopped)

	buf := make([]byte, captureChunkSize)
	numBytes := 0
	for {
		n, err := port.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				sink.Error("capture: failed to write output file", "error", werr.Error())
				return RuntimeError{}
			}
			numBytes += n
			fmt.Printf("Read %d bytes...\r", numBytes)
		}
		if err != nil {
			fmt.Println("\n\nFinishing capture.")
			return nil
		}
	}
}
