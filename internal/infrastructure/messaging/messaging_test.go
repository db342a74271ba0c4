package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"workshop-scheduler/config"
	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleEvent() entity.BookingEvent {
	techID := uuid.New()
	return entity.BookingEvent{
		Type:           entity.BookingEventAssigned,
		BookingID:      uuid.New(),
		CustomerID:     uuid.New(),
		TechnicianID:   &techID,
		VehicleNumber:  "B 1234 XY",
		Status:         entity.BookingStatusAssigned,
		PreviousStatus: entity.BookingStatusPending,
		ScheduledAt:    time.Date(2030, 3, 12, 10, 0, 0, 0, time.UTC),
		OccurredAt:     time.Date(2030, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	err      error
	closed   bool
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return c.err
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func TestRabbitMQPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &RabbitMQPublisher{ch: ch, exchange: "workshop.bookings", log: newTestLogger()}
	event := sampleEvent()

	require.NoError(t, p.Publish(context.Background(), event))
	assert.Equal(t, "workshop.bookings", ch.exchange)
	assert.Equal(t, entity.BookingEventAssigned, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)

	var decoded entity.BookingEvent
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, event.BookingID, decoded.BookingID)
	assert.Equal(t, entity.BookingStatusPending, decoded.PreviousStatus)

	ch.err = errors.New("channel closed")
	assert.Error(t, p.Publish(context.Background(), event))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "workshop.bookings", log: newTestLogger()}
	event := sampleEvent()

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, event.BookingID.String(), string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, entity.BookingEventAssigned, string(w.msgs[0].Headers[0].Value))

	w.err = errors.New("leader not available")
	assert.Error(t, p.Publish(context.Background(), event))
}

func TestNewEventPublisher(t *testing.T) {
	log := newTestLogger()

	p, err := NewEventPublisher(config.BrokerConfig{Kind: BrokerNone}, log)
	require.NoError(t, err)
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))

	p, err = NewEventPublisher(config.BrokerConfig{Kind: BrokerKafka, Brokers: []string{"localhost:9092"}, Topic: "bookings"}, log)
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	require.NoError(t, p.Close())

	_, err = NewEventPublisher(config.BrokerConfig{Kind: BrokerKafka}, log)
	assert.Error(t, err)

	_, err = NewEventPublisher(config.BrokerConfig{Kind: "sqs"}, log)
	assert.Error(t, err)
}
