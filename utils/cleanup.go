package utils

import (
	"context"
	"time"

	"hope-backend/config"
	"hope-backend/db/models"
	"hope-backend/registration/repositories"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Imports stuck in LOADING longer than this are treated as abandoned.
const staleLoadingTTL = 24 * time.Hour

type importDocumentCleaner interface {
	DeleteImportDocuments(ctx context.Context, importID uuid.UUID) error
}

// CleanupScheduler runs nightly maintenance: expiring abandoned imports and
// retrying search-index deletes that failed during erase or merge rollback.
type CleanupScheduler struct {
	ImportRepo repositories.RegistrationRepository
	Index      importDocumentCleaner
	cron       *cron.Cron
}

func NewCleanupScheduler(importRepo repositories.RegistrationRepository, index importDocumentCleaner) *CleanupScheduler {
	return &CleanupScheduler{
		ImportRepo: importRepo,
		Index:      index,
		cron:       cron.New(),
	}
}

// Start schedules the cleanup to run every day at 1 AM.
func (s *CleanupScheduler) Start() error {
	_, err := s.cron.AddFunc("0 1 * * *", func() {
		s.Run(context.Background())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *CleanupScheduler) Stop() {
	s.cron.Stop()
}

// Run executes one cleanup pass. Exposed so operators can trigger it manually.
func (s *CleanupScheduler) Run(ctx context.Context) {
	config.Logger.Info("Running scheduled import cleanup")
	s.expireStaleLoading()
	s.retryIndexDeletes(ctx)
}

func (s *CleanupScheduler) expireStaleLoading() {
	cutoff := time.Now().Add(-staleLoadingTTL)
	stale, err := s.ImportRepo.FindStaleLoading(cutoff)
	if err != nil {
		config.Logger.Error("Could not list stale LOADING imports", zap.Error(err))
		return
	}

	for _, rdi := range stale {
		if err := s.ImportRepo.UpdateStatus(nil, rdi.ID, models.ImportErrorImport); err != nil {
			config.Logger.Error("Could not expire stale import",
				zap.String("import_id", rdi.ID.String()),
				zap.Error(err),
			)
			continue
		}
		config.Logger.Warn("Expired stale LOADING import",
			zap.String("import_id", rdi.ID.String()),
			zap.String("name", rdi.Name),
		)
	}
}

func (s *CleanupScheduler) retryIndexDeletes(ctx context.Context) {
	candidates, err := s.ImportRepo.FindIndexCleanupCandidates()
	if err != nil {
		config.Logger.Error("Could not list index cleanup candidates", zap.Error(err))
		return
	}

	for _, rdi := range candidates {
		if err := s.Index.DeleteImportDocuments(ctx, rdi.ID); err != nil {
			config.Logger.Warn("Index cleanup retry failed, will retry next run",
				zap.String("import_id", rdi.ID.String()),
				zap.Error(err),
			)
		}
	}
}
