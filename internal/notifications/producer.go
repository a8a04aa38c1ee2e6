package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/hackload-kz/rorobotics/internal/shared/config"
	"github.com/hackload-kz/rorobotics/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer publishes booking outcome events to Kafka. With Kafka
// disabled it degrades to a no-op so the booking flow never depends
// on the broker being up.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(cfg *config.Config) (*Producer, error) {
	if !cfg.Kafka.Enabled {
		logger.GetDefault().Info("kafka disabled, booking notifications will be dropped")
		return &Producer{}, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	logger.GetDefault().Info("kafka notification producer ready",
		"brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return &Producer{producer: producer, topic: cfg.Kafka.Topic}, nil
}

// BookingConfirmed publishes the paid booking event.
func (p *Producer) BookingConfirmed(ctx context.Context, bookingID, userID int64, seatIDs []int64) error {
	return p.publish(&BookingNotification{
		ID:        uuid.New().String(),
		Type:      TypeBookingConfirmed,
		BookingID: bookingID,
		UserID:    userID,
		SeatIDs:   seatIDs,
		CreatedAt: time.Now(),
	})
}

// PaymentFailed publishes the failed payment event.
func (p *Producer) PaymentFailed(ctx context.Context, bookingID, userID int64) error {
	return p.publish(&BookingNotification{
		ID:        uuid.New().String(),
		Type:      TypePaymentFailed,
		BookingID: bookingID,
		UserID:    userID,
		CreatedAt: time.Now(),
	})
}

func (p *Producer) publish(notification *BookingNotification) error {
	if p.producer == nil {
		return nil
	}

	payload, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(notification.PartitionKey()),
		Value:     sarama.ByteEncoder(payload),
		Timestamp: notification.CreatedAt,
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	logger.GetDefault().Info("notification published",
		"type", notification.Type,
		"booking_id", notification.BookingID,
		"partition", partition,
		"offset", offset)
	return nil
}

func (p *Producer) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}
