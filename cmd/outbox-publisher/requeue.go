package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/shareit-backend/pkg/db/models"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
)

type dlqRequeuer interface {
	List(ctx context.Context, limit int) ([]models.OutboxDLQ, error)
	Requeue(ctx context.Context, eventIDs ...uuid.UUID) (int, error)
}

// requeueDLQ hands up to limit dead-lettered events back to the relay.
func requeueDLQ(ctx context.Context, dlq dlqRequeuer, limit int, logg *logger.Logger) (int, error) {
	parked, err := dlq.List(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list dlq: %w", err)
	}
	if len(parked) == 0 {
		logg.Info(ctx, "outbox dlq empty")
		return 0, nil
	}

	ids := make([]uuid.UUID, 0, len(parked))
	for _, entry := range parked {
		ids = append(ids, entry.EventID)
	}
	requeued, err := dlq.Requeue(ctx, ids...)
	if err != nil {
		return 0, fmt.Errorf("requeue dlq: %w", err)
	}
	logg.Info(logg.WithField(ctx, "requeued", requeued), "outbox dlq events requeued")
	return requeued, nil
}
