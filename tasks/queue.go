package tasks

import (
	"context"
	"fmt"

	"hope-backend/config"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// JobHandle identifies an enqueued background job.
type JobHandle struct {
	ID    string `json:"id"`
	Queue string `json:"queue"`
}

// Queue is the narrow enqueue interface handed to the HTTP layer, so
// controllers and tests never touch the broker client directly.
type Queue interface {
	Enqueue(ctx context.Context, task *asynq.Task) (*JobHandle, error)
}

type asynqQueue struct {
	client *asynq.Client
}

func NewAsynqQueue(client *asynq.Client) Queue {
	return &asynqQueue{client: client}
}

func (q *asynqQueue) Enqueue(ctx context.Context, task *asynq.Task) (*JobHandle, error) {
	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	config.Logger.Info("Enqueued background task",
		zap.String("type", task.Type()),
		zap.String("taskID", info.ID),
		zap.String("queue", info.Queue))
	return &JobHandle{ID: info.ID, Queue: info.Queue}, nil
}
