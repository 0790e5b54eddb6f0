package syncbridge

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"insurechain/internal/ledger"
	dErrors "insurechain/pkg/domain-errors"
)

// DefaultTopic carries ledger events between the authoritative process and
// remote mirror processes.
const DefaultTopic = "insurechain.ledger.events"

// Publisher forwards ledger events to Kafka. It satisfies Applier, so a
// Worker can drain the in-process feed into the broker for split-process
// deployments.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher constructs a Kafka publisher against the given brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create kafka client")
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Apply produces one event. Keyed by sequence so a partitioned topic keeps
// per-ledger ordering; produced synchronously because the worker already
// runs off the mutation path.
func (p *Publisher) Apply(ctx context.Context, event ledger.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode ledger event")
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.EventID.String()),
		Value: data,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeSyncFailure, "failed to produce ledger event")
	}
	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}

// Consumer polls ledger events from Kafka and applies them to the local
// bridge. It is the remote half of a split-process deployment.
type Consumer struct {
	client *kgo.Client
	bridge *Bridge
	logger *slog.Logger
}

// NewConsumer constructs a group consumer for the event topic.
func NewConsumer(brokers []string, topic, group string, bridge *Bridge, logger *slog.Logger) (*Consumer, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(group),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create kafka client")
	}
	return &Consumer{client: client, bridge: bridge, logger: logger}, nil
}

// Run polls until the context is cancelled. Undecodable or unappliable
// records are logged and skipped; the journal remains the recovery path.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if c.logger != nil {
				c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
			}
		})
		fetches.EachRecord(func(record *kgo.Record) {
			var event ledger.Event
			if err := json.Unmarshal(record.Value, &event); err != nil {
				if c.logger != nil {
					c.logger.Error("failed to decode ledger event", "offset", record.Offset, "error", err)
				}
				return
			}
			if err := c.bridge.Apply(ctx, event); err != nil && c.logger != nil {
				c.logger.Error("failed to apply ledger event", "sequence", event.Sequence, "error", err)
			}
		})
	}
}
