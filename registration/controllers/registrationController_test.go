package controllers

import (
	"net/http/httptest"
	"testing"
	"time"

	"hope-backend/config"
	"hope-backend/db/models"
	"hope-backend/tasks"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	config.Logger = zap.NewNop()
}

type fakeImportRepo struct {
	rdi           *models.RegistrationDataImport
	statusUpdates []models.ImportStatus
}

func (f *fakeImportRepo) GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error) {
	return f.rdi, nil
}

func (f *fakeImportRepo) GetFilteredImports(limit, offset int, filters map[string]string) ([]models.RegistrationDataImport, int64, error) {
	return []models.RegistrationDataImport{*f.rdi}, 1, nil
}

func (f *fakeImportRepo) UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeImportRepo) SetMergeError(importID uuid.UUID, message string) error { return nil }

func (f *fakeImportRepo) UpdateMergeStats(tx *gorm.DB, rdi *models.RegistrationDataImport) error {
	return nil
}

func (f *fakeImportRepo) IncrementBiometricDuplicates(tx *gorm.DB, importID uuid.UUID, delta int) error {
	return nil
}

func (f *fakeImportRepo) MarkErased(tx *gorm.DB, importID uuid.UUID) error { return nil }

func (f *fakeImportRepo) FindStaleLoading(cutoff time.Time) ([]models.RegistrationDataImport, error) {
	return nil, nil
}

func (f *fakeImportRepo) FindIndexCleanupCandidates() ([]models.RegistrationDataImport, error) {
	return nil, nil
}

func controllerFixture(status models.ImportStatus) (*fiber.App, *fakeImportRepo, *tasks.FakeQueue, uuid.UUID) {
	importID := uuid.New()
	repo := &fakeImportRepo{
		rdi: &models.RegistrationDataImport{ID: importID, Name: "batch-1", Status: status},
	}
	queue := &tasks.FakeQueue{}
	rc := &RegistrationController{ImportRepo: repo, Queue: queue}

	app := fiber.New()
	app.Post("/registration-data-imports/:id/merge", rc.ScheduleMergeController)
	app.Post("/registration-data-imports/:id/deduplicate", rc.ScheduleDeduplicationController)
	return app, repo, queue, importID
}

func TestScheduleMergeEnqueuesTask(t *testing.T) {
	app, repo, queue, importID := controllerFixture(models.InReviewImport)

	req := httptest.NewRequest("POST", "/registration-data-imports/"+importID.String()+"/merge", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{tasks.TypeMergeImport}, queue.TypeNames())
	assert.Equal(t, []models.ImportStatus{models.MergeScheduledImport}, repo.statusUpdates)
}

func TestScheduleMergeRejectedFromMergedStatus(t *testing.T) {
	app, repo, queue, importID := controllerFixture(models.MergedImport)

	req := httptest.NewRequest("POST", "/registration-data-imports/"+importID.String()+"/merge", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Empty(t, queue.Enqueued)
	assert.Empty(t, repo.statusUpdates)
}

func TestScheduleDeduplicationEnqueuesTask(t *testing.T) {
	app, _, queue, importID := controllerFixture(models.DeduplicationFailedImport)

	req := httptest.NewRequest("POST", "/registration-data-imports/"+importID.String()+"/deduplicate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{tasks.TypeDeduplicateImport}, queue.TypeNames())
}

func TestScheduleDeduplicationRejectedWhileMerging(t *testing.T) {
	app, _, queue, importID := controllerFixture(models.MergingImport)

	req := httptest.NewRequest("POST", "/registration-data-imports/"+importID.String()+"/deduplicate", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Empty(t, queue.Enqueued)
}

func TestScheduleMergeInvalidID(t *testing.T) {
	app, _, queue, _ := controllerFixture(models.InReviewImport)

	req := httptest.NewRequest("POST", "/registration-data-imports/not-a-uuid/merge", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, queue.Enqueued)
}
