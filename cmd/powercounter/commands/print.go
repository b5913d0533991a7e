package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"powercounter/internal/processor"
	"powercounter/internal/serialio"
	"powercounter/internal/sml"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Decode the stream and print messages and OBIS values to stdout",
	Long: `print reads from the serial device (or --input-file) and prints every
decoded message and OBIS value as it arrives.`,
	Args: cobra.NoArgs,
	RunE: runPrint,
}

func runPrint(cmd *cobra.Command, args []string) error {
	input, err := serialio.OpenInput(device, inputFile, sink)
	if err != nil {
		sink.Error("print: failed to open input", "error", err.Error())
		return RuntimeError{}
	}
	defer input.Close()

	onFile := func(file []byte, decoded *sml.File) {
		if !verbose {
			return
		}
		fmt.Printf("Extracted a new file of %d bytes:\n", len(file))
		fmt.Printf("      Extracted %d messages:\n", len(decoded.Messages))
		for _, msg := range decoded.Messages {
			fmt.Printf("      %+v\n", msg)
		}
	}

	onObis := func(objName string, value float64, unit string) {
		fmt.Printf("%s: %.3f %s\n", objName, value, unit)
	}

	if err := processor.Run(context.Background(), input, sink, onFile, onObis); err != nil {
		sink.Error("print: processing stopped with an error", "error", err.Error())
		return RuntimeError{}
	}
	return nil
}
