// Package mqttifc publishes decoded OBIS values to an MQTT broker,
// mapping OBIS identifiers to topics via a user-supplied table.
package mqttifc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"powercounter/internal/logging"
)

// ParseTopics parses a comma-separated "OBIS=topic" list (the
// --mqtt-topics CLI flag) into an OBIS-id-to-topic map. Malformed
// entries are reported through sink and skipped rather than aborting
// the whole parse — one typo in a long topic list shouldn't take down
// every other mapping.
func ParseTopics(spec string, sink logging.Sink) map[string]string {
	if sink == nil {
		sink = logging.Discard
	}

	topics := make(map[string]string)
	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.SplitN(item, "=", 2)
		if len(parts) != 2 || strings.Count(item, "=") != 1 {
			sink.Error("mqttifc: ignoring malformed topic mapping, want <OBIS ID>=<MQTT Topic>", "item", item)
			continue
		}
		obis, topic := parts[0], parts[1]
		topics[obis] = topic
		sink.Debug("mqttifc: mapped OBIS id to topic", "obis", obis, "topic", topic)
	}
	return topics
}

// Publisher is a connected MQTT client that publishes OBIS values on
// their mapped topics.
type Publisher struct {
	client mqtt.Client
	topics map[string]string
	sink   logging.Sink
}

// Config gathers the connection parameters needed to dial a broker.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Topics   map[string]string
}

// Connect dials the broker and returns a Publisher once the connect
// attempt settles. SetConnectRetry/SetAutoReconnect keep the client
// retrying in the background past this point, so a broker that's
// briefly unreachable at startup doesn't fail the whole command.
func Connect(cfg Config, sink logging.Sink) (*Publisher, error) {
	if sink == nil {
		sink = logging.Discard
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID("powercounter")
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetConnectRetry(true)
	opts.SetAutoReconnect(true)

	sink.Debug("mqttifc: connecting to broker", "host", cfg.Host, "port", cfg.Port)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.WaitTimeout(5 * time.Second)
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttifc: connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Publisher{client: client, topics: cfg.Topics, sink: sink}, nil
}

// Close disconnects the client, waiting up to 250ms for in-flight
// publishes to drain.
func (p *Publisher) Close() {
	p.sink.Debug("mqttifc: closing MQTT client")
	p.client.Disconnect(250)
}

// Publish sends value on the topic mapped to obisID. OBIS ids with no
// configured topic are silently ignored — the operator only wanted a
// subset of registers published.
func (p *Publisher) Publish(obisID string, value float64) {
	topic, ok := p.topics[obisID]
	if !ok {
		return
	}

	payload := strconv.FormatFloat(value, 'f', -1, 64)
	p.sink.Debug("mqttifc: publishing", "obis", obisID, "topic", topic, "value", payload)

	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(time.Second) {
		p.sink.Error("mqttifc: publish timed out", "obis", obisID, "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.sink.Error("mqttifc: publish failed", "obis", obisID, "topic", topic, "error", err.Error())
	}
}
