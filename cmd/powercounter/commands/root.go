// Package commands implements the powercounter CLI: capture, print,
// and publish subcommands sharing a common set of input and logging
// flags.
package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"powercounter/internal/logging"
)

// Exit codes per the command-line contract: 0 success, 1 runtime
// failure (device/file could not be opened, I/O error), 2 argument
// error.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// RuntimeError marks a subcommand failure that should exit with
// ExitFailure rather than cobra's usual ExitUsage treatment of a
// returned error. The message has already been logged through sink by
// the time this is returned, so Execute does not print it again.
type RuntimeError struct{}

func (RuntimeError) Error() string { return "powercounter: command failed" }

var (
	device       string
	inputFile    string
	verbose      bool
	silent       bool
	suppressTime float64

	sink logging.Sink
)

var rootCmd = &cobra.Command{
	Use:   "powercounter",
	Short: "Decode SML telegrams from an electricity meter's infrared head",
	Long: `powercounter reconstructs SML (Smart Message Language) files from a
serial stream or capture file, decodes their messages, and surfaces
OBIS-coded measurements.

  - "capture" saves the raw serial stream to a file for later replay.
  - "print" decodes the stream and prints messages and OBIS values to stdout.
  - "publish" decodes the stream and publishes OBIS values over MQTT.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		base := logging.NewSlogSink(os.Stderr, verbose, silent, false)
		if suppressTime > 0 {
			sink = logging.NewSuppressingSink(base, time.Duration(suppressTime*float64(time.Second)))
		} else {
			sink = base
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "increase verbosity to debug level")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "decrease verbosity to error level")
	rootCmd.PersistentFlags().Float64Var(&suppressTime, "suppress-time", 60, "suppress duplicate warnings/errors for this many seconds (0 disables)")
	rootCmd.PersistentFlags().StringVarP(&device, "device", "d", "/dev/ttyUSB0", "serial port device to open")
	rootCmd.PersistentFlags().StringVarP(&inputFile, "input-file", "i", "", "read from this capture file instead of the serial device")

	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(publishCmd)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	switch {
	case err == nil:
		return ExitSuccess
	case isRuntimeError(err):
		return ExitFailure
	default:
		fmt.Fprintln(os.Stderr, err)
		return ExitUsage
	}
}

func isRuntimeError(err error) bool {
	_, ok := err.(RuntimeError)
	return ok
}
