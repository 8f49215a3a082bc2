package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/repositories"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// natsHeaderCarrier adapts nats.Msg headers for the otel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// MessagePublisher is the part of a NATS connection the output needs.
type MessagePublisher interface {
	PublishMsg(msg *nats.Msg) error
	Flush() error
}

// NATSOutput publishes every record on <prefix>.<topic>, carrying the trace
// context of ctx in the message headers.
type NATSOutput struct {
	ctx       context.Context
	publisher MessagePublisher
	conn      *nats.Conn
	prefix    string
}

func NewNATSOutput(ctx context.Context, url, prefix string) (*NATSOutput, error) {
	nc, err := nats.Connect(url, nats.Name("foodroutesim"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	out := NewNATSOutputFromPublisher(ctx, nc, prefix)
	out.conn = nc
	return out, nil
}

func NewNATSOutputFromPublisher(ctx context.Context, publisher MessagePublisher, prefix string) *NATSOutput {
	return &NATSOutput{ctx: ctx, publisher: publisher, prefix: prefix}
}

func (n *NATSOutput) WriteMessage(topic string, msg []byte) error {
	m := &nats.Msg{
		Subject: prefixed(n.prefix, topic),
		Data:    msg,
	}
	otel.GetTextMapPropagator().Inject(n.ctx, (*natsHeaderCarrier)(m))
	return n.publisher.PublishMsg(m)
}

func (n *NATSOutput) Close() error {
	err := n.publisher.Flush()
	if n.conn != nil {
		n.conn.Close()
	}
	return err
}

// MQTTOutput publishes every record on <prefix>/<topic> with QoS 1.
type MQTTOutput struct {
	client  paho.Client
	prefix  string
	timeout time.Duration
}

func NewMQTTOutput(broker, clientID, prefix string) (*MQTTOutput, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	out := NewMQTTOutputFromClient(paho.NewClient(opts), prefix)
	token := out.client.Connect()
	if !token.WaitTimeout(out.timeout) {
		return nil, fmt.Errorf("connect to mqtt %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to mqtt %s: %w", broker, err)
	}
	return out, nil
}

func NewMQTTOutputFromClient(client paho.Client, prefix string) *MQTTOutput {
	return &MQTTOutput{client: client, prefix: prefix, timeout: 10 * time.Second}
}

func (m *MQTTOutput) WriteMessage(topic string, msg []byte) error {
	mqttTopic := topic
	if m.prefix != "" {
		mqttTopic = m.prefix + "/" + topic
	}
	token := m.client.Publish(mqttTopic, 1, false, msg)
	if !token.WaitTimeout(m.timeout) {
		return fmt.Errorf("publish to %s: timed out", mqttTopic)
	}
	return token.Error()
}

func (m *MQTTOutput) Close() error {
	m.client.Disconnect(250)
	return nil
}

// PostgresOutput batches event records into the EventRepository. Rating
// records are stored by the runner and ignored here.
type PostgresOutput struct {
	ctx       context.Context
	repo      repositories.EventRepository
	batchSize int
	mu        sync.Mutex
	batch     []*models.EventRecord
}

func NewPostgresOutput(ctx context.Context, repo repositories.EventRepository, batchSize int) *PostgresOutput {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &PostgresOutput{ctx: ctx, repo: repo, batchSize: batchSize}
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	if topic == TopicRunRatings {
		return nil
	}
	record := &models.EventRecord{}
	if err := json.Unmarshal(msg, record); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.batch = append(p.batch, record)
	if len(p.batch) < p.batchSize {
		return nil
	}
	return p.flush()
}

// flush must be called with p.mu held.
func (p *PostgresOutput) flush() error {
	if len(p.batch) == 0 {
		return nil
	}
	batch := p.batch
	p.batch = nil
	if err := p.repo.BulkCreate(p.ctx, batch); err != nil {
		return fmt.Errorf("store %d events: %w", len(batch), err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flush()
}

func prefixed(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}
