package notifications

import (
	"context"
	"fmt"
	"time"

	"cineplex/internal/shared/config"
	"cineplex/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher hands a notification off for delivery.
type Publisher interface {
	Publish(ctx context.Context, notification *EmailNotification) error
	Close() error
}

// KafkaPublisher writes notifications to the notification topic.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

func newProducerConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Same booking, same partition
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	return saramaConfig
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, newProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic, log), nil
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, log: log.WithComponent("notification-producer")}
}

func (p *KafkaPublisher) Publish(ctx context.Context, notification *EmailNotification) error {
	notification.Status = NotificationStatusQueued
	notification.UpdatedAt = time.Now()

	messageBytes, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(notification.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   createHeaders(notification),
		Timestamp: notification.CreatedAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		notification.MarkFailed(err)
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	p.log.DebugContext(ctx, "notification published",
		"topic", p.topic, "partition", partition, "offset", offset,
		"type", string(notification.Type), "booking_id", notification.BookingID.String())
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

func createHeaders(notification *EmailNotification) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("notification_id"), Value: []byte(notification.ID.String())},
		{Key: []byte("notification_type"), Value: []byte(notification.Type)},
		{Key: []byte("booking_id"), Value: []byte(notification.BookingID.String())},
	}
}

// DirectPublisher delivers in-process. Used when Kafka is disabled.
type DirectPublisher struct {
	deliverer *Deliverer
	log       *logger.Logger
}

func NewDirectPublisher(deliverer *Deliverer, log *logger.Logger) *DirectPublisher {
	return &DirectPublisher{deliverer: deliverer, log: log.WithComponent("notification-direct")}
}

func (p *DirectPublisher) Publish(ctx context.Context, notification *EmailNotification) error {
	return p.deliverer.Deliver(ctx, notification)
}

func (p *DirectPublisher) Close() error { return nil }
