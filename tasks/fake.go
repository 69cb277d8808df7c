package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// FakeQueue is an in-memory Queue for tests: it records every enqueued
// task instead of touching Redis.
type FakeQueue struct {
	Enqueued []*asynq.Task
	Err      error
}

func (q *FakeQueue) Enqueue(ctx context.Context, task *asynq.Task) (*JobHandle, error) {
	if q.Err != nil {
		return nil, q.Err
	}
	q.Enqueued = append(q.Enqueued, task)
	return &JobHandle{
		ID:    fmt.Sprintf("fake-%d", len(q.Enqueued)),
		Queue: "default",
	}, nil
}

// TypeNames returns the task types enqueued so far, in order.
func (q *FakeQueue) TypeNames() []string {
	names := make([]string, 0, len(q.Enqueued))
	for _, task := range q.Enqueued {
		names = append(names, task.Type())
	}
	return names
}
