package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

var errTestBroker = errors.New("test broker error")

// fakeToken is a completed or hanging mqtt.Token.
type fakeToken struct {
	err     error
	timeout bool
}

func (t *fakeToken) Wait() bool                     { return !t.timeout }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timeout }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.timeout {
		close(ch)
	}

	return ch
}

// fakeMQTTClient records publishes; unused methods panic through the nil embedded interface.
type fakeMQTTClient struct {
	mqtt.Client

	topics       []string
	payloads     [][]byte
	qos          []byte
	token        *fakeToken
	disconnected bool
}

func (c *fakeMQTTClient) Publish(topic string, qos byte, _ bool, payload any) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.qos = append(c.qos, qos)
	c.payloads = append(c.payloads, payload.([]byte))

	return c.token
}

func (c *fakeMQTTClient) Disconnect(uint) {
	c.disconnected = true
}

// TestMQTTSink publishes JSON on a per-type topic.
func TestMQTTSink(t *testing.T) {
	t.Parallel()

	client := &fakeMQTTClient{token: new(fakeToken)}
	sink := NewMQTTSink(client, MQTTConfig{QoS: 1, Timeout: time.Second})
	require.Equal(t, "mqtt", sink.Name())

	e := New(TypeValveChanged, time.Now(), Payload{"device": "goteros", "on": true})
	require.NoError(t, sink.Send(context.Background(), e))

	require.Equal(t, []string{"irrigation/events/valve.changed"}, client.topics)
	require.Equal(t, []byte{1}, client.qos)

	var decoded Event
	require.NoError(t, json.Unmarshal(client.payloads[0], &decoded))
	require.Equal(t, e.ID, decoded.ID)

	client.token = &fakeToken{err: errTestBroker}
	require.ErrorIs(t, sink.Send(context.Background(), e), errTestBroker)

	client.token = &fakeToken{timeout: true}
	require.ErrorIs(t, sink.Send(context.Background(), e), errMQTTTimeout)

	require.NoError(t, sink.Close())
	require.True(t, client.disconnected)
}

// fakeNATSConn records publishes.
type fakeNATSConn struct {
	subjects []string
	err      error
	drained  bool
}

func (c *fakeNATSConn) Publish(subject string, _ []byte) error {
	if c.err != nil {
		return c.err
	}

	c.subjects = append(c.subjects, subject)

	return nil
}

func (c *fakeNATSConn) Drain() error {
	c.drained = true
	return nil
}

// TestNATSSink publishes on a per-type subject.
func TestNATSSink(t *testing.T) {
	t.Parallel()

	conn := new(fakeNATSConn)
	sink := newNATSSink(conn, "garden.events")
	require.Equal(t, "nats", sink.Name())

	require.NoError(t, sink.Send(context.Background(), New(TypeModeChanged, time.Now(), nil)))
	require.Equal(t, []string{"garden.events.mode.changed"}, conn.subjects)

	conn.err = errTestBroker
	require.ErrorIs(t, sink.Send(context.Background(), New(TypeModeChanged, time.Now(), nil)), errTestBroker)

	require.NoError(t, sink.Close())
	require.True(t, conn.drained)

	require.Equal(t, DefaultNATSSubject+".clock.synced", newNATSSink(conn, "").Subject(TypeClockSynced))
}
