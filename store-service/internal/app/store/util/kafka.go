package util

import (
	"context"
	"fmt"
	"time"

	"storefront/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer обертка над Kafka writer для отправки событий
// product_events: PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_DELETED
// wallet_events: WALLET_TRANSACTION_COMPLETED
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer создает новый Kafka producer для одного топика
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// Событие отправляется синхронно из обработчика запроса, поэтому батч короткий
		BatchSize:    100,
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaProducer{writer: writer, topic: topic}
}

// PublishMessage отправляет сообщение в Kafka
// key - id сущности, сохраняет порядок событий одной сущности внутри партиции
func (p *KafkaProducer) PublishMessage(ctx context.Context, key string, value []byte) error {
	message := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}

	timer := metrics.NewKafkaProduceTimer(serviceName, p.topic)
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		timer.Error()
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	timer.Success()

	return nil
}

// Close закрывает Kafka writer и освобождает ресурсы
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NoopPublisher используется, когда KAFKA_BROKERS не задан
type NoopPublisher struct{}

func (NoopPublisher) PublishMessage(ctx context.Context, key string, value []byte) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

// NewPublisher выбирает реализацию по наличию брокеров
func NewPublisher(brokers []string, topic string) MessagePublisher {
	if len(brokers) == 0 {
		return NoopPublisher{}
	}
	return NewKafkaProducer(brokers, topic)
}
