package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

const mqttConnectTimeout = 10 * time.Second

// MQTTSink publishes decisions as JSON to a broker topic.
type MQTTSink struct {
	client mqtt.Client
	topic  string
}

// NewMQTTSink connects to the broker. Connection failure is returned to
// the caller; whether that is fatal is a deployment decision made in main.
func NewMQTTSink(host string, port int, clientID, topic string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", host, port)).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(mqttConnectTimeout)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s:%d timed out", host, port)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s:%d failed: %w", host, port, err)
	}

	logger.Info("Notify", "Connected to MQTT broker %s:%d, publishing to %s", host, port, topic)
	return &MQTTSink{client: client, topic: topic}, nil
}

// Notify publishes the decision at QoS 0; staleness beats backpressure
// for a once-a-second state signal.
func (m *MQTTSink) Notify(r types.DecisionResult) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}
	token := m.client.Publish(m.topic, 0, false, payload)
	if token.Error() != nil {
		return fmt.Errorf("publish failed: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (m *MQTTSink) Close() error {
	m.client.Disconnect(250)
	return nil
}

var _ Sink = (*MQTTSink)(nil)
