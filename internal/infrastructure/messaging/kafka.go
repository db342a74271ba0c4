package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workshop-scheduler/internal/domain/entity"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes booking events keyed by booking id, so all events of
// one booking land on the same partition in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	log    *logrus.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *logrus.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("kafka publisher needs brokers and a topic")
	}

	log.Infof("Publishing booking events to kafka topic %s", topic)
	return &KafkaPublisher{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event entity.BookingEvent) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.BookingID.String()),
		Value: body,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s to %s: %w", event.Type, p.topic, err)
	}

	p.log.Debugf("Published %s for booking %s", event.Type, event.BookingID)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
