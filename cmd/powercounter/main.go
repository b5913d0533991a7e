// Command powercounter decodes SML telegrams from an electricity
// meter's infrared optical head and surfaces OBIS measurements to the
// console or an MQTT broker.
package main

import (
	"os"

	"powercounter/cmd/powercounter/commands"
)

func main() {
	os.Exit(commands.Execute())
}
