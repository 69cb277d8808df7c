package tasks

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportTaskPayloadRoundTrip(t *testing.T) {
	importID := uuid.New()

	task, err := NewMergeImportTask(importID)
	require.NoError(t, err)
	assert.Equal(t, TypeMergeImport, task.Type())

	payload, err := parseImportPayload(task)
	require.NoError(t, err)
	assert.Equal(t, importID, payload.ImportID)
}

func TestParseImportPayloadRejectsGarbage(t *testing.T) {
	_, err := parseImportPayload(asynq.NewTask(TypeMergeImport, []byte("not json")))
	assert.Error(t, err)

	_, err = parseImportPayload(asynq.NewTask(TypeDeduplicateImport, []byte(`{}`)))
	assert.Error(t, err)
}
