// Package mqtt mirrors coordinator events onto an MQTT broker for kiosks
// that consume commands over MQTT instead of holding a websocket. The
// bridge is optional: with no broker configured every publish is a no-op.
package mqtt

import (
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

var connectHandler paho.OnConnectHandler = func(client paho.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler paho.ConnectionLostHandler = func(client paho.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

type Bridge struct {
	client paho.Client
}

// NewBridge connects to brokerURL. An empty brokerURL returns a disabled
// bridge.
func NewBridge(brokerURL, clientID string) (*Bridge, error) {
	if brokerURL == "" {
		return &Bridge{}, nil
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Bridge{client: client}, nil
}

func (b *Bridge) Enabled() bool { return b.client != nil }

// SendControl publishes a control payload to one kiosk's command topic.
func (b *Bridge) SendControl(hostname string, payload any) {
	b.publish(fmt.Sprintf("kiosk/%s/commands", hostname), payload)
}

// BroadcastEvent publishes an event to the fleet-wide topic.
func (b *Bridge) BroadcastEvent(event string, payload any) {
	b.publish(fmt.Sprintf("kiosk/all/%s", event), payload)
}

func (b *Bridge) publish(topic string, payload any) {
	if b.client == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to marshal MQTT payload")
		return
	}
	// Callers publish from hot paths (rotation ticks hold the engine lock),
	// so never block on the QoS 1 ack. Failures just get logged, the
	// websocket path still delivers.
	token := b.client.Publish(topic, 1, false, data)
	go func() {
		<-token.Done()
		if token.Error() != nil {
			log.Warn().Err(token.Error()).Str("topic", topic).Msg("MQTT publish failed")
		}
	}()
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	if b.client != nil {
		b.client.Disconnect(250)
	}
}
