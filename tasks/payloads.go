package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TypeMergeImport       = "rdi:merge"
	TypeDeduplicateImport = "rdi:deduplicate"
)

// ImportTaskPayload is the body shared by the import background tasks.
type ImportTaskPayload struct {
	ImportID uuid.UUID `json:"import_id"`
}

func NewMergeImportTask(importID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportTaskPayload{ImportID: importID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal merge task payload: %w", err)
	}
	return asynq.NewTask(TypeMergeImport, payload, asynq.MaxRetry(3)), nil
}

func NewDeduplicateImportTask(importID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(ImportTaskPayload{ImportID: importID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deduplicate task payload: %w", err)
	}
	return asynq.NewTask(TypeDeduplicateImport, payload, asynq.MaxRetry(3)), nil
}

func parseImportPayload(task *asynq.Task) (ImportTaskPayload, error) {
	var payload ImportTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %s payload: %w", task.Type(), err)
	}
	if payload.ImportID == uuid.Nil {
		return payload, fmt.Errorf("%s payload has no import id", task.Type())
	}
	return payload, nil
}
