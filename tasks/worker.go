package tasks

import (
	"context"

	"hope-backend/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// importProcessor is the slice of the merge service the worker calls.
type importProcessor interface {
	MergeImport(ctx context.Context, importID uuid.UUID) error
	RunDeduplication(ctx context.Context, importID uuid.UUID) error
}

// Worker consumes the import background tasks. Retries are bounded per
// task; the merge service itself parks failed imports in an error status,
// so a final retry failure is visible in the import list either way.
type Worker struct {
	server  *asynq.Server
	imports importProcessor
}

func NewWorker(redisOpt asynq.RedisClientOpt, imports importProcessor) *Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"default": 1,
		},
	})
	return &Worker{server: server, imports: imports}
}

// Start runs the worker loop in a goroutine.
func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMergeImport, w.handleMergeImport)
	mux.HandleFunc(TypeDeduplicateImport, w.handleDeduplicateImport)
	return w.server.Start(mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleMergeImport(ctx context.Context, task *asynq.Task) error {
	payload, err := parseImportPayload(task)
	if err != nil {
		config.Logger.Error("Dropping malformed merge task", zap.Error(err))
		return nil // malformed payloads are not retryable
	}
	return w.imports.MergeImport(ctx, payload.ImportID)
}

func (w *Worker) handleDeduplicateImport(ctx context.Context, task *asynq.Task) error {
	payload, err := parseImportPayload(task)
	if err != nil {
		config.Logger.Error("Dropping malformed deduplicate task", zap.Error(err))
		return nil
	}
	return w.imports.RunDeduplication(ctx, payload.ImportID)
}
