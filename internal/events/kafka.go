// Package events publishes domain events to the message bus.
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"storefront-backend/internal/model"
)

type envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    model.Event `json:"payload"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaDispatcher struct {
	writer messageWriter
}

// NewKafkaDispatcher returns a dispatcher writing to topic on the comma separated brokers.
func NewKafkaDispatcher(brokersCSV, topic string) *KafkaDispatcher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &KafkaDispatcher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, event model.Event) error {
	value, err := json.Marshal(envelope{
		ID:         uuid.NewString(),
		Type:       event.Type(),
		OccurredAt: time.Now().UTC(),
		Payload:    event,
	})
	if err != nil {
		return errors.Wrapf(err, "marshal %s", event.Type())
	}
	err = d.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type())},
		},
	})
	return errors.Wrapf(err, "publish %s", event.Type())
}

func (d *KafkaDispatcher) Close() error {
	return d.writer.Close()
}

// NopDispatcher drops every event. It is used when no broker is configured.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, model.Event) error { return nil }

func (NopDispatcher) Close() error { return nil }
