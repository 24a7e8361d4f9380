package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/segmentio/kafka-go"

	"github.com/avishkar-academy/vault/internal/pkg/env"
)

// KafkaPublisher buffers events in a channel drained by one goroutine.
type KafkaPublisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	p := &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion: func(messages []kafka.Message, err error) {
				if err != nil {
					log.Errorf("[Events] failed to deliver %d message(s): %v", len(messages), err)
				}
			},
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
	go p.loop()
	return p
}

// NewPublisherFromEnv returns a Kafka publisher when KAFKA_BROKERS is set and
// a Noop otherwise.
func NewPublisherFromEnv() Publisher {
	brokers := env.GetEnvList("KAFKA_BROKERS")
	if len(brokers) == 0 {
		log.Info("[Events] KAFKA_BROKERS not set, events are discarded")
		return Noop{}
	}
	topic := env.GetEnv("KAFKA_TOPIC", "academy.events")
	log.Infof("[Events] publishing to %s on %v", topic, brokers)
	return NewKafkaPublisher(brokers, topic, env.GetEnvInt("KAFKA_BUFFER", 256))
}

func (p *KafkaPublisher) loop() {
	defer close(p.closeCh)
	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			log.Errorf("[Events] write failed: %v", err)
		}
	}
	if err := p.w.Close(); err != nil {
		log.Errorf("[Events] writer close failed: %v", err)
	}
}

// Publish enqueues the event. When the buffer is full the event is dropped
// with an error log so request handling never waits on the broker.
func (p *KafkaPublisher) Publish(_ context.Context, e Envelope) {
	value, err := json.Marshal(e)
	if err != nil {
		log.Errorf("[Events] marshal %s failed: %v", e.Type, err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(e.Type)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(e.Version))},
		},
	}
	select {
	case p.inbox <- msg:
	default:
		log.Errorf("[Events] buffer full, dropping %s event %s", e.Type, e.ID)
	}
}

// Close flushes buffered events and closes the writer.
func (p *KafkaPublisher) Close() error {
	close(p.inbox)
	<-p.closeCh
	return nil
}
