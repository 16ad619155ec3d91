package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newRetryingConsumer(retries uint64) *Consumer {
	return &Consumer{
		logger: zap.NewNop(),
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, retries)
		},
	}
}

func TestHandle_RetriesUntilSuccess(t *testing.T) {
	c := newRetryingConsumer(3)
	calls := 0
	err := c.handle(context.Background(), func(context.Context, kafkago.Message) error {
		calls++
		if calls < 3 {
			return errors.New("database unavailable")
		}
		return nil
	}, kafkago.Message{Topic: "provider.events"})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestHandle_GivesUpAfterRetries(t *testing.T) {
	c := newRetryingConsumer(2)
	calls := 0
	err := c.handle(context.Background(), func(context.Context, kafkago.Message) error {
		calls++
		return errors.New("database unavailable")
	}, kafkago.Message{Topic: "provider.events"})

	assert.EqualError(t, err, "database unavailable")
	assert.Equal(t, 3, calls)
}

func TestHandle_StopsWhenContextEnds(t *testing.T) {
	c := newRetryingConsumer(100)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := c.handle(ctx, func(context.Context, kafkago.Message) error {
		calls++
		cancel()
		return errors.New("database unavailable")
	}, kafkago.Message{Topic: "provider.events"})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
