package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"smart-gateway-be/pkg/message"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// MessageHandler processes one inbound unified message. Returning an
// error requeues the message.
type MessageHandler func(ctx context.Context, msg message.UnifiedMessage) error

// Subscriber consumes inbound chat messages from the NATS bus. Channel
// adapters that cannot call the HTTP API directly publish their traffic
// to the MESSAGES stream instead.
type Subscriber struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewSubscriber connects and makes sure the MESSAGES stream exists.
func NewSubscriber(url string) (*Subscriber, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      "MESSAGES",
		Subjects:  []string{"messages.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream 'MESSAGES': %v", err)
	}

	return &Subscriber{nc: nc, js: js}, nil
}

// Subscribe registers a durable consumer for a subject pattern. Messages
// that fail validation are dropped with an Ack; handler errors requeue.
func (s *Subscriber) Subscribe(subject string, durableName string, handler MessageHandler) error {
	ctx := context.Background()

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, "MESSAGES", jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	_, err = consumer.Consume(func(msg jetstream.Msg) {
		var um message.UnifiedMessage
		if err := json.Unmarshal(msg.Data(), &um); err != nil {
			log.Printf("Error unmarshalling unified message: %v", err)
			msg.Ack()
			return
		}
		if err := um.Validate(); err != nil {
			log.Printf("Dropping malformed message on %s: %v", msg.Subject(), err)
			msg.Ack()
			return
		}

		if err := handler(context.Background(), um); err != nil {
			log.Printf("Handler failed for message on %s: %v", msg.Subject(), err)
			msg.Nak()
			return
		}

		msg.Ack()
	})

	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	log.Printf("Subscribed to %s with durable %s", subject, durableName)
	return nil
}

// Close closes the connection.
func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
