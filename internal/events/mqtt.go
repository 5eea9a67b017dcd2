package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTTConfig selects the broker and the topic prefix. Events go to <Topic>/reps/<exercise>.
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
}

// MQTTSink publishes rep events as JSON.
type MQTTSink struct {
	cfg    MQTTConfig
	client mqtt.Client
}

// NewMQTTSink connects to the broker. Once connected, lost connections are re-established
// in the background.
func NewMQTTSink(cfg MQTTConfig) (*MQTTSink, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt broker not configured")
	}
	if cfg.Topic == "" {
		cfg.Topic = "sightline"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "sightline"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL(cfg.Broker))
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Str("client_id", cfg.ClientID).Msg("mqtt connection established")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.Broker).Msg("mqtt connection lost, will auto-reconnect")
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		// Stop the background connect retries
		client.Disconnect(0)
		return nil, fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return &MQTTSink{cfg: cfg, client: client}, nil
}

// brokerURL accepts host:port and adds the tcp scheme.
func brokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// Topic returns the topic an event is published on.
func (s *MQTTSink) Topic(ev RepEvent) string {
	return fmt.Sprintf("%s/reps/%s", s.cfg.Topic, ev.Exercise)
}

// Name implements Sink.
func (s *MQTTSink) Name() string { return "mqtt" }

// WriteRepEvent implements Sink.
func (s *MQTTSink) WriteRepEvent(ctx context.Context, ev RepEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal rep event: %w", err)
	}
	token := s.client.Publish(s.Topic(ev), s.cfg.QoS, false, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish timeout: %w", ctx.Err())
	}
}

// Close disconnects with a short grace period.
func (s *MQTTSink) Close() error {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
		log.Info().Msg("mqtt disconnected")
	}
	return nil
}
