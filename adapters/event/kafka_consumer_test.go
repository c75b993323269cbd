package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/pkg/logger"
)

func newTestConsumer(attempts uint) *PortfolioConsumer {
	return &PortfolioConsumer{
		logger:       logger.NewNop(),
		maxAttempts:  attempts,
		retryBackoff: time.Millisecond,
	}
}

func TestProcess_RetriesUntilHandled(t *testing.T) {
	c := newTestConsumer(5)
	calls := 0
	handle := func(_ context.Context, p PortfolioEventPayload) error {
		calls++
		if calls < 3 {
			return errors.New("cache unavailable")
		}
		return nil
	}

	err := c.process(context.Background(), handle, PortfolioEventPayload{
		EventType:   PortfolioUnpublished,
		PortfolioID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestProcess_GivesUpAfterMaxAttempts(t *testing.T) {
	c := newTestConsumer(3)
	failure := errors.New("storage down")
	calls := 0
	handle := func(_ context.Context, p PortfolioEventPayload) error {
		calls++
		return failure
	}

	err := c.process(context.Background(), handle, PortfolioEventPayload{EventType: PortfolioDeleted})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
}

func TestProcess_StopsOnCancel(t *testing.T) {
	c := newTestConsumer(100)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	handle := func(_ context.Context, p PortfolioEventPayload) error {
		calls++
		cancel()
		return errors.New("interrupted")
	}

	err := c.process(ctx, handle, PortfolioEventPayload{EventType: PortfolioDeleted})
	assert.Error(t, err)
	assert.Less(t, calls, 100)
}
