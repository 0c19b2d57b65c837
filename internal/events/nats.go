package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultNATSSubject is the subject prefix; the event type is appended.
const DefaultNATSSubject = "irrigation.events"

// NATSConfig describes the server connection.
type NATSConfig struct {
	// URL is the server URL, e.g. nats://localhost:4222.
	URL string
	// Subject is the subject prefix.
	Subject string
	// Token is an optional auth token.
	Token string
	// Timeout bounds the connect attempt.
	Timeout time.Duration
}

// natsPublisher is the subset of *nats.Conn the sink uses.
type natsPublisher interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSSink publishes events as JSON on <subject>.<event type>.
type NATSSink struct {
	conn    natsPublisher
	subject string
}

// DialNATS connects to the server.
func DialNATS(cfg NATSConfig) (*NATSSink, error) {
	opts := []nats.Option{
		nats.Name("irrigation-server"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.URL, err)
	}

	return newNATSSink(conn, cfg.Subject), nil
}

func newNATSSink(conn natsPublisher, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultNATSSubject
	}

	return &NATSSink{
		conn:    conn,
		subject: subject,
	}
}

// Name implements Sink.
func (s *NATSSink) Name() string {
	return "nats"
}

// Subject returns the subject an event of the given type is published on.
func (s *NATSSink) Subject(eventType Type) string {
	return s.subject + "." + string(eventType)
}

// Send implements Sink.
func (s *NATSSink) Send(_ context.Context, e Event) error {
	payload, err := e.Marshal()
	if err != nil {
		return err
	}

	if err = s.conn.Publish(s.Subject(e.Type), payload); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	return nil
}

// Close implements Sink.
func (s *NATSSink) Close() error {
	if err := s.conn.Drain(); err != nil {
		return fmt.Errorf("drain nats connection: %w", err)
	}

	return nil
}
