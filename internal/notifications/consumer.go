package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cineplex/internal/shared/config"
	"cineplex/pkg/logger"

	"github.com/IBM/sarama"
)

// Deliverer sends one notification, retrying with exponential backoff.
type Deliverer struct {
	emailService EmailService
	maxRetries   int
	backoff      time.Duration
	log          *logger.Logger
}

func NewDeliverer(emailService EmailService, maxRetries int, backoff time.Duration, log *logger.Logger) *Deliverer {
	return &Deliverer{
		emailService: emailService,
		maxRetries:   maxRetries,
		backoff:      backoff,
		log:          log.WithComponent("notification-delivery"),
	}
}

func (d *Deliverer) Deliver(ctx context.Context, notification *EmailNotification) error {
	if notification.IsExpired() {
		d.log.InfoContext(ctx, "notification expired, skipping", "notification_id", notification.ID.String())
		return nil
	}

	notification.Status = NotificationStatusSending
	if err := d.executeWithRetry(ctx, notification); err != nil {
		notification.MarkFailed(err)
		return err
	}

	notification.MarkSent()
	d.log.InfoContext(ctx, "email notification sent",
		"type", string(notification.Type), "booking_id", notification.BookingID.String(), "to", notification.RecipientEmail)
	return nil
}

func (d *Deliverer) executeWithRetry(ctx context.Context, notification *EmailNotification) error {
	for attempt := 0; ; attempt++ {
		err := d.emailService.SendNotification(ctx, notification)
		if err == nil {
			if attempt > 0 {
				d.log.InfoContext(ctx, "notification sent after retries", "retries", attempt)
			}
			return nil
		}

		if attempt >= d.maxRetries {
			d.log.ErrorContext(ctx, "notification delivery failed", "attempts", attempt+1, "error", err)
			return err
		}

		delay := d.backoff * time.Duration(1<<attempt)
		d.log.WarnContext(ctx, "retrying notification", "attempt", attempt+1, "delay", delay.String(), "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Consumer reads the notification topic with a consumer group and hands
// each message to a Deliverer. Every worker is its own group member so the
// topic's partitions are spread across them.
type Consumer struct {
	groups    []sarama.ConsumerGroup
	topic     string
	deliverer *Deliverer
	log       *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewConsumer(cfg config.KafkaConfig, deliverer *Deliverer, log *logger.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = 30 * time.Second
	saramaConfig.Consumer.Group.Heartbeat.Interval = 3 * time.Second
	saramaConfig.Consumer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = 5 * time.Minute
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	groups := make([]sarama.ConsumerGroup, 0, workers)
	for i := 0; i < workers; i++ {
		group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
		if err != nil {
			for _, g := range groups {
				_ = g.Close()
			}
			return nil, fmt.Errorf("failed to create consumer group member %d: %w", i, err)
		}
		groups = append(groups, group)
	}
	return newConsumerWithGroups(groups, cfg.Topic, deliverer, log), nil
}

func newConsumerWithGroups(groups []sarama.ConsumerGroup, topic string, deliverer *Deliverer, log *logger.Logger) *Consumer {
	return &Consumer{
		groups:    groups,
		topic:     topic,
		deliverer: deliverer,
		log:       log.WithComponent("notification-consumer"),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.log.Info("starting notification consumers", "workers", len(c.groups), "topic", c.topic)

	for i, group := range c.groups {
		go c.handleErrors(i, group)
		c.wg.Add(1)
		go func(workerID int, group sarama.ConsumerGroup) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID, group)
		}(i, group)
	}
}

func (c *Consumer) runWorker(ctx context.Context, workerID int, group sarama.ConsumerGroup) {
	handler := &consumerGroupHandler{workerID: workerID, deliverer: c.deliverer, log: c.log}
	for {
		if err := group.Consume(ctx, []string{c.topic}, handler); err != nil {
			c.log.Error("error consuming messages", "worker", workerID, "error", err)
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Consumer) handleErrors(workerID int, group sarama.ConsumerGroup) {
	for err := range group.Errors() {
		c.log.Error("consumer group error", "worker", workerID, "error", err)
	}
}

// Stop cancels the workers, waits for them and closes every group member.
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	var errs []error
	for _, group := range c.groups {
		if err := group.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type consumerGroupHandler struct {
	workerID  int
	deliverer *Deliverer
	log       *logger.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.log.Error("error processing notification", "worker", h.workerID, "offset", message.Offset, "error", err)
			}
			// Deliverer already retried; failures are not redelivered.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var notification EmailNotification
	if err := json.Unmarshal(message.Value, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	return h.deliverer.Deliver(ctx, &notification)
}
