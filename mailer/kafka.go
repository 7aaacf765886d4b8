package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// KafkaMailer publica o email em um tópico; um worker externo faz a entrega.
type KafkaMailer struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaMailer(brokers []string, topic string) *KafkaMailer {
	return &KafkaMailer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Balancer: &kafka.LeastBytes{},
		},
		topic: topic,
	}
}

func (k *KafkaMailer) Provider() string { return "kafka" }

func (k *KafkaMailer) Send(ctx context.Context, e Email) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: k.topic,
		Key:   []byte(e.IdempotencyKey),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", k.topic, err)
	}
	return nil
}

func (k *KafkaMailer) Close() error {
	return k.writer.Close()
}
