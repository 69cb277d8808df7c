package services

import (
	"context"
	"errors"
	"testing"

	"hope-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeEraseImportStore struct {
	rdi           *models.RegistrationDataImport
	statusUpdates []models.ImportStatus
	erased        bool
}

func (f *fakeEraseImportStore) GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error) {
	return f.rdi, nil
}

func (f *fakeEraseImportStore) UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeEraseImportStore) MarkErased(tx *gorm.DB, importID uuid.UUID) error {
	f.erased = true
	return nil
}

// fakeDeleter records DeleteByImport calls into a shared ordered log so
// tests can assert tickets go before individuals before households.
type fakeDeleter struct {
	name string
	log  *[]string
}

func (f *fakeDeleter) DeleteByImport(tx *gorm.DB, importID uuid.UUID) error {
	*f.log = append(*f.log, f.name)
	return nil
}

type fakeDocRemover struct {
	deleteCalls int
	deleteErr   error
}

func (f *fakeDocRemover) DeleteImportDocuments(ctx context.Context, importID uuid.UUID) error {
	f.deleteCalls++
	return f.deleteErr
}

type eraseFixture struct {
	imports   *fakeEraseImportStore
	deletions []string
	index     *fakeDocRemover
	service   *EraseService
}

func newEraseFixture(status models.ImportStatus) *eraseFixture {
	f := &eraseFixture{
		imports: &fakeEraseImportStore{
			rdi: &models.RegistrationDataImport{ID: uuid.New(), Name: "batch-1", Status: status},
		},
		index: &fakeDocRemover{},
	}
	f.service = NewEraseService(
		&fakeTxManager{},
		f.imports,
		&fakeDeleter{name: "households", log: &f.deletions},
		&fakeDeleter{name: "individuals", log: &f.deletions},
		&fakeDeleter{name: "tickets", log: &f.deletions},
		f.index,
	)
	return f
}

func TestEraseDeletesImportData(t *testing.T) {
	f := newEraseFixture(models.MergeErrorImport)

	err := f.service.Erase(context.Background(), f.imports.rdi.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"tickets", "individuals", "households"}, f.deletions)
	assert.True(t, f.imports.erased)
	assert.Equal(t, 1, f.index.deleteCalls)
}

func TestEraseRejectedOutsideErrorStates(t *testing.T) {
	for _, status := range []models.ImportStatus{
		models.InReviewImport,
		models.MergedImport,
		models.MergingImport,
	} {
		f := newEraseFixture(status)

		err := f.service.Erase(context.Background(), f.imports.rdi.ID)
		require.Error(t, err, "status %s", status)
		assert.Empty(t, f.deletions)
		assert.False(t, f.imports.erased)
	}
}

func TestEraseSurvivesIndexCleanupFailure(t *testing.T) {
	f := newEraseFixture(models.DeduplicationFailedImport)
	f.index.deleteErr = errors.New("es down")

	err := f.service.Erase(context.Background(), f.imports.rdi.ID)
	require.NoError(t, err)
	assert.True(t, f.imports.erased)
}

func TestRefuseDropsPendingRows(t *testing.T) {
	f := newEraseFixture(models.InReviewImport)

	err := f.service.Refuse(context.Background(), f.imports.rdi.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"tickets", "individuals", "households"}, f.deletions)
	assert.Equal(t, []models.ImportStatus{models.RefusedImport}, f.imports.statusUpdates)
}

func TestRefuseRejectedAfterReview(t *testing.T) {
	f := newEraseFixture(models.MergedImport)

	err := f.service.Refuse(context.Background(), f.imports.rdi.ID)
	require.Error(t, err)
	assert.Empty(t, f.deletions)
}
