package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	// DefaultMQTTTopic is the topic prefix; the event type is appended.
	DefaultMQTTTopic = "irrigation/events"
	// mqttDisconnectQuiesce is how long Disconnect waits for in-flight work, in milliseconds.
	mqttDisconnectQuiesce = 250
)

var errMQTTTimeout = errors.New("mqtt operation timed out")

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	// Broker is the broker URL, e.g. tcp://localhost:1883.
	Broker string
	// ClientID identifies this controller to the broker.
	ClientID string
	// Topic is the topic prefix.
	Topic string
	// QoS is the delivery guarantee level (0, 1 or 2).
	QoS byte
	// Username and Password are optional credentials.
	Username string
	Password string
	// Timeout bounds connect and publish.
	Timeout time.Duration
}

// MQTTSink publishes events as JSON on <topic>/<event type>.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
}

// DialMQTT connects to the broker.
func DialMQTT(cfg MQTTConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.Timeout).
		SetAutoReconnect(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, errMQTTTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Broker, err)
	}

	return NewMQTTSink(client, cfg), nil
}

// NewMQTTSink wraps a connected client.
func NewMQTTSink(client mqtt.Client, cfg MQTTConfig) *MQTTSink {
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultMQTTTopic
	}

	return &MQTTSink{
		client:  client,
		topic:   topic,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
	}
}

// Name implements Sink.
func (s *MQTTSink) Name() string {
	return "mqtt"
}

// Topic returns the topic an event of the given type is published on.
func (s *MQTTSink) Topic(eventType Type) string {
	return s.topic + "/" + string(eventType)
}

// Send implements Sink.
func (s *MQTTSink) Send(_ context.Context, e Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return err
	}

	token := s.client.Publish(s.Topic(e.Type), s.qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("publish %s: %w", e.Type, errMQTTTimeout)
	}

	if err = token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	return nil
}

// Close implements Sink.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(mqttDisconnectQuiesce)
	return nil
}
