package events

import (
	"context"
	"errors"
	"strings"

	"github.com/MoveMate/service-booking/internal/application"
	bookingDomain "github.com/MoveMate/service-booking/internal/domain/booking"
	"github.com/MoveMate/service-booking/pkg/domain"
	"github.com/MoveMate/service-booking/pkg/events"
	"github.com/MoveMate/service-booking/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StatusAdvancer moves a booking to its next status. *application.BookingService satisfies it.
type StatusAdvancer interface {
	AdvanceStatus(ctx context.Context, trackingID, target, changedBy string) (*application.BookingDTO, error)
}

// ProviderEventConsumer listens to provider status updates and advances bookings.
type ProviderEventConsumer struct {
	consumer *kafka.Consumer
	service  StatusAdvancer
	logger   *zap.Logger
}

// NewProviderEventConsumer creates a new ProviderEventConsumer.
func NewProviderEventConsumer(
	brokers []string,
	groupID string,
	service StatusAdvancer,
	logger *zap.Logger,
) *ProviderEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicProviderEvents, logger)
	return &ProviderEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming provider events. This blocks until the context is cancelled.
func (c *ProviderEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ProviderEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ProviderEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from provider topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.ProviderStatusUpdated:
		return c.handleStatusUpdated(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled provider event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *ProviderEventConsumer) handleStatusUpdated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.ProviderStatusUpdatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse ProviderStatusUpdatedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}
	if strings.TrimSpace(evt.TrackingID) == "" {
		c.logger.Warn("provider status update without tracking id", zap.String("event_id", cloudEvent.ID))
		return nil
	}

	c.logger.Info("processing provider status update",
		zap.String("tracking_id", evt.TrackingID),
		zap.String("status", evt.Status),
		zap.String("provider_id", evt.ProviderID),
	)

	if _, err := c.service.AdvanceStatus(ctx, evt.TrackingID, evt.Status, evt.ProviderID); err != nil {
		// A lost optimistic-lock race is transient; let the consumer retry it.
		if errors.Is(err, bookingDomain.ErrVersionConflict) {
			c.logger.Warn("provider status update raced another writer, retrying",
				zap.String("tracking_id", evt.TrackingID),
				zap.String("status", evt.Status),
			)
			return err
		}
		// Business rejections will not succeed on redelivery.
		if domain.CodeOf(err) != "" {
			c.logger.Warn("provider status update rejected",
				zap.String("tracking_id", evt.TrackingID),
				zap.String("status", evt.Status),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to advance booking status",
			zap.String("tracking_id", evt.TrackingID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
