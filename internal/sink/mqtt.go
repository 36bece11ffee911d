package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttPublishTimeout = 5 * time.Second

type mqttPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSink publishes frames as retained JSON messages on <prefix>/<phase>/<type>.
type MQTTSink struct {
	client mqttPublisher
	prefix string
}

// DialMQTT connects to the broker and returns the sink with its client for Disconnect.
func DialMQTT(broker, clientID, prefix string) (*MQTTSink, mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(clientID).SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return NewMQTTSink(client, prefix), client, nil
}

func NewMQTTSink(client mqttPublisher, prefix string) *MQTTSink {
	return &MQTTSink{client: client, prefix: strings.Trim(prefix, "/")}
}

// Topic is where frames of a type for a phase are published.
func (s *MQTTSink) Topic(f Frame) string {
	return s.prefix + "/" + string(f.Phase) + "/" + f.Type
}

func (s *MQTTSink) Publish(ctx context.Context, f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return observe("mqtt", fmt.Errorf("mqtt encode: %w", err))
	}

	timeout := mqttPublishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	token := s.client.Publish(s.Topic(f), 1, true, payload)
	if !token.WaitTimeout(timeout) {
		return observe("mqtt", fmt.Errorf("mqtt publish %s: timed out", s.Topic(f)))
	}
	if err := token.Error(); err != nil {
		return observe("mqtt", fmt.Errorf("mqtt publish %s: %w", s.Topic(f), err))
	}
	return observe("mqtt", nil)
}
