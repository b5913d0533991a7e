package commands

import (
	"context"

	"github.com/spf13/cobra"

	"powercounter/internal/mqttifc"
	"powercounter/internal/processor"
	"powercounter/internal/serialio"
)

var (
	mqttHost     string
	mqttPort     int
	mqttUsername string
	mqttPassword string
	mqttTopics   string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Decode the stream and publish OBIS values over MQTT",
	Long: `publish reads from the serial device (or --input-file), decodes OBIS
values, and publishes each one on its configured MQTT topic.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&mqttHost, "mqtt-host", "192.168.1.70", "MQTT broker host")
	publishCmd.Flags().IntVar(&mqttPort, "mqtt-port", 1883, "MQTT broker port")
	publishCmd.Flags().StringVar(&mqttUsername, "mqtt-username", "mqtt", "MQTT username")
	publishCmd.Flags().StringVar(&mqttPassword, "mqtt-password", "mqtt", "MQTT password")
	publishCmd.Flags().StringVar(&mqttTopics, "mqtt-topics", "1-0:1.8.0*255=power/total,1-0:16.7.0*255=power/rate,1-0:2.8.0*255=power/feed-total", "comma-separated list of <OBIS ID>=<MQTT topic> mappings")
}

func runPublish(cmd *cobra.Command, args []string) error {
	input, err := serialio.OpenInput(device, inputFile, sink)
	if err != nil {
		sink.Error("publish: failed to open input", "error", err.Error())
		return RuntimeError{}
	}
	defer input.Close()

	topics := mqttifc.ParseTopics(mqttTopics, sink)
	pub, err := mqttifc.Connect(mqttifc.Config{
		Host:     mqttHost,
		Port:     mqttPort,
		Username: mqttUsername,
		Password: mqttPassword,
		Topics:   topics,
	}, sink)
	if err != nil {
		sink.Error("publish: failed to connect to MQTT broker", "error", err.Error())
		return RuntimeError{}
	}
	defer pub.Close()

	onObis := func(objName string, value float64, unit string) {
		pub.Publish(objName, value)
	}

	if err := processor.Run(context.Background(), input, sink, nil, onObis); err != nil {
		sink.Error("publish: processing stopped with an error", "error", err.Error())
		return RuntimeError{}
	}
	return nil
}
