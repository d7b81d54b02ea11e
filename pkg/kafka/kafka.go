package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrDisabled = errors.New("kafka disabled")

type Client struct {
	Brokers []string
}

// NewClient parses a comma separated broker list. An empty list disables
// Kafka; callers check Enabled and fall back to direct delivery.
func NewClient(brokersCSV string) *Client {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return &Client{Brokers: brokers}
}

func (c *Client) Enabled() bool {
	return len(c.Brokers) > 0
}

// Publisher writes JSON messages to one topic, keyed so that all messages for
// a customer land in the same partition and keep their order.
type Publisher struct {
	writer *kafka.Writer
}

func (c *Client) NewPublisher(topic string) (*Publisher, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	return &Publisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}, nil
}

func (p *Publisher) Publish(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data, Time: time.Now().UTC()})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (c *Client) NewReader(topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.Brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}
