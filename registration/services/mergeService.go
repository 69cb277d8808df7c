package services

import (
	"context"
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"
	dedup_services "hope-backend/deduplication/services"
	grievance_services "hope-backend/grievance/services"
	search_services "hope-backend/search/services"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The merge service depends on the narrow slices of its collaborators it
// actually calls, so the pipeline is testable with in-memory fakes.

type txManager interface {
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormTxManager runs the closure inside a database transaction.
type GormTxManager struct {
	DB *gorm.DB
}

func (m *GormTxManager) Transaction(fn func(tx *gorm.DB) error) error {
	return m.DB.Transaction(fn)
}

type importStore interface {
	GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error)
	UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error
	SetMergeError(importID uuid.UUID, message string) error
	UpdateMergeStats(tx *gorm.DB, rdi *models.RegistrationDataImport) error
	IncrementBiometricDuplicates(tx *gorm.DB, importID uuid.UUID, delta int) error
}

type householdStore interface {
	FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Household, error)
	MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error
}

type individualStore interface {
	FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Individual, error)
	FindByIDs(tx *gorm.DB, individualIDs []uuid.UUID) ([]models.Individual, error)
	FindPendingAccountsByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Account, error)
	CountActiveAccountsByUniqueKey(tx *gorm.DB, programID uuid.UUID, mechanismID uuid.UUID, uniqueKey string, excludeAccountID uuid.UUID) (int64, error)
	MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error
	MarkChildRecordsMergedByImport(tx *gorm.DB, importID uuid.UUID) error
	UpdateDeduplicationResults(tx *gorm.DB, individual *models.Individual) error
	DeactivateAccount(tx *gorm.DB, accountID uuid.UUID) error
	SetAccountUniqueKey(tx *gorm.DB, accountID uuid.UUID, uniqueKey string) error
}

type populationCounter interface {
	RecalculateForHouseholds(tx *gorm.DB, householdIDs []uuid.UUID) error
}

type ticketCreator interface {
	CreateNeedsAdjudicationTicket(tx *gorm.DB, params grievance_services.NeedsAdjudicationParams) (*models.GrievanceTicket, error)
	CreateSystemFlaggingTicket(tx *gorm.DB, params grievance_services.SystemFlaggingParams) (*models.GrievanceTicket, error)
	CreateAccountDataTicket(tx *gorm.DB, params grievance_services.AccountDataIssueParams) (*models.GrievanceTicket, error)
}

type batchDeduplicator interface {
	DeduplicateBatch(individuals []models.Individual) map[uuid.UUID][]dedup_services.BatchMatch
	FindPossibleDuplicates(ctx context.Context, individual models.Individual, minScore float64) ([]search_services.PopulationMatch, error)
}

type sanctionScreener interface {
	ScreenIndividuals(ctx context.Context, individuals []models.Individual) ([]dedup_services.SanctionListHit, error)
}

type biometricDeduplicator interface {
	DeduplicateIndividuals(ctx context.Context, programID uuid.UUID, individuals []models.Individual) ([]dedup_services.BiometricMatch, error)
}

type populationIndexer interface {
	IndexIndividuals(ctx context.Context, individuals []models.Individual) error
	IndexHouseholds(ctx context.Context, households []models.Household) error
	DeleteImportDocuments(ctx context.Context, importID uuid.UUID) error
}

type collectionLinker interface {
	LinkHousehold(tx *gorm.DB, household *models.Household) error
	LinkIndividual(tx *gorm.DB, individual *models.Individual) error
}

type failureNotifier interface {
	NotifyMergeFailure(importName string, mergeErr error)
}

// MergeService promotes the pending population of an approved import into
// the canonical population. Everything runs in one database transaction;
// search index writes are the only external side effect and are compensated
// with a delete-by-import when the transaction rolls back.
type MergeService struct {
	tx          txManager
	imports     importStore
	households  householdStore
	individuals individualStore
	counts      populationCounter
	tickets     ticketCreator
	dedup       batchDeduplicator
	sanctions   sanctionScreener
	biometric   biometricDeduplicator
	index       populationIndexer
	collections collectionLinker
	notifier    failureNotifier
}

func NewMergeService(
	tx txManager,
	imports importStore,
	households householdStore,
	individuals individualStore,
	counts populationCounter,
	tickets ticketCreator,
	dedup batchDeduplicator,
	sanctions sanctionScreener,
	biometric biometricDeduplicator,
	index populationIndexer,
	collections collectionLinker,
	notifier failureNotifier,
) *MergeService {
	return &MergeService{
		tx:          tx,
		imports:     imports,
		households:  households,
		individuals: individuals,
		counts:      counts,
		tickets:     tickets,
		dedup:       dedup,
		sanctions:   sanctions,
		biometric:   biometric,
		index:       index,
		collections: collections,
		notifier:    notifier,
	}
}

type mergeStats struct {
	batchDuplicates     int
	batchUnique         int
	goldenPossible      int
	goldenUnique        int
	biometricDuplicates int
}

// MergeImport runs the merge pipeline for one import. Per-record data
// problems become grievance tickets and never fail the batch; an
// infrastructure failure rolls everything back, compensates the index
// writes and parks the import in MERGE_ERROR with the message preserved.
func (s *MergeService) MergeImport(ctx context.Context, importID uuid.UUID) error {
	rdi, err := s.imports.GetByID(nil, importID)
	if err != nil {
		return err
	}
	if !rdi.CanBeMerged() && rdi.Status != models.MergingImport {
		return fmt.Errorf("import %s cannot be merged from status %s", rdi.Name, rdi.Status)
	}
	if rdi.BusinessArea == nil || rdi.Program == nil {
		return fmt.Errorf("import %s is missing its business area or program", rdi.Name)
	}

	if err := s.imports.UpdateStatus(nil, importID, models.MergingImport); err != nil {
		return err
	}
	config.Logger.Info("Merging registration data import",
		zap.String("importID", importID.String()),
		zap.String("name", rdi.Name))

	mergeErr := s.tx.Transaction(func(tx *gorm.DB) error {
		return s.runPipeline(ctx, tx, rdi)
	})
	if mergeErr != nil {
		// The transaction is gone but the index writes may not be.
		if err := s.index.DeleteImportDocuments(ctx, importID); err != nil {
			config.Logger.Error("Failed to compensate index writes after merge failure",
				zap.Error(err), zap.String("importID", importID.String()))
		}
		if err := s.imports.SetMergeError(importID, mergeErr.Error()); err != nil {
			config.Logger.Error("Failed to record merge error", zap.Error(err))
		}
		if s.notifier != nil {
			s.notifier.NotifyMergeFailure(rdi.Name, mergeErr)
		}
		config.Logger.Error("Merge failed",
			zap.Error(mergeErr), zap.String("importID", importID.String()))
		return mergeErr
	}

	config.Logger.Info("Merge completed",
		zap.String("importID", importID.String()), zap.String("name", rdi.Name))
	return nil
}

func (s *MergeService) runPipeline(ctx context.Context, tx *gorm.DB, rdi *models.RegistrationDataImport) error {
	households, err := s.households.FindPendingByImport(tx, rdi.ID)
	if err != nil {
		return err
	}
	individuals, err := s.individuals.FindPendingByImport(tx, rdi.ID)
	if err != nil {
		return err
	}

	householdIDs := make([]uuid.UUID, 0, len(households))
	for _, hh := range households {
		householdIDs = append(householdIDs, hh.ID)
	}
	if err := s.counts.RecalculateForHouseholds(tx, householdIDs); err != nil {
		return err
	}

	if err := s.validateAccounts(tx, rdi); err != nil {
		return err
	}

	if err := s.individuals.MarkChildRecordsMergedByImport(tx, rdi.ID); err != nil {
		return err
	}

	var stats mergeStats
	if rdi.BusinessArea.PostponeDeduplication {
		if err := s.postponeDeduplication(tx, individuals); err != nil {
			return err
		}
	} else {
		if err := s.deduplicate(ctx, tx, rdi, individuals, &stats, true); err != nil {
			return err
		}
	}

	if rdi.ScreenBeneficiary && rdi.BusinessArea.ScreenBeneficiary {
		s.screenAgainstSanctionList(ctx, tx, rdi, individuals)
	}

	if rdi.Program.BiometricDeduplicationEnabled {
		s.deduplicateBiometrics(ctx, tx, rdi, individuals, &stats)
	}

	if err := s.households.MarkMergedByImport(tx, rdi.ID); err != nil {
		return err
	}
	if err := s.individuals.MarkMergedByImport(tx, rdi.ID); err != nil {
		return err
	}

	if rdi.DataSource == models.ProgramPopulationImportDataSource {
		for i := range households {
			if err := s.collections.LinkHousehold(tx, &households[i]); err != nil {
				return err
			}
		}
		for i := range individuals {
			if err := s.collections.LinkIndividual(tx, &individuals[i]); err != nil {
				return err
			}
		}
	}

	rdi.Status = models.MergedImport
	rdi.NumberOfHouseholds = len(households)
	rdi.NumberOfIndividuals = len(individuals)
	rdi.BatchDuplicates = stats.batchDuplicates
	rdi.BatchUnique = stats.batchUnique
	rdi.GoldenRecordPossibleDuplicates = stats.goldenPossible
	rdi.GoldenRecordUnique = stats.goldenUnique
	rdi.BiometricDuplicates = stats.biometricDuplicates
	rdi.ErrorMessage = ""
	if err := s.imports.UpdateMergeStats(tx, rdi); err != nil {
		return err
	}

	for i := range individuals {
		individuals[i].RdiMergeStatus = models.MergedMergeStatus
	}
	for i := range households {
		households[i].RdiMergeStatus = models.MergedMergeStatus
	}
	if err := s.index.IndexIndividuals(ctx, individuals); err != nil {
		return err
	}
	if err := s.index.IndexHouseholds(ctx, households); err != nil {
		return err
	}
	return nil
}

// validateAccounts checks each pending account against its delivery
// mechanism: missing required fields and per-program duplicate unique keys
// deactivate the account and raise a data-change ticket for follow-up.
func (s *MergeService) validateAccounts(tx *gorm.DB, rdi *models.RegistrationDataImport) error {
	accounts, err := s.individuals.FindPendingAccountsByImport(tx, rdi.ID)
	if err != nil {
		return err
	}

	for _, account := range accounts {
		if account.DeliveryMechanism == nil {
			config.Logger.Warn("Pending account has no delivery mechanism",
				zap.String("accountID", account.ID.String()))
			continue
		}

		if missing := MissingAccountFields(account); len(missing) > 0 {
			issues := map[string]interface{}{
				"problem":        "missing_required_fields",
				"missing_fields": missing,
				"mechanism":      account.DeliveryMechanism.Code,
			}
			if err := s.flagAccount(tx, rdi, account, issues,
				fmt.Sprintf("Account is missing required fields for %s", account.DeliveryMechanism.Name)); err != nil {
				return err
			}
			continue
		}

		key := AccountUniqueKey(account)
		if key == "" {
			continue
		}
		if err := s.individuals.SetAccountUniqueKey(tx, account.ID, key); err != nil {
			return err
		}
		existing, err := s.individuals.CountActiveAccountsByUniqueKey(tx, rdi.ProgramID, account.DeliveryMechanismID, key, account.ID)
		if err != nil {
			return err
		}
		if existing > 0 {
			issues := map[string]interface{}{
				"problem":    "duplicate_account",
				"unique_key": key,
				"mechanism":  account.DeliveryMechanism.Code,
			}
			if err := s.flagAccount(tx, rdi, account, issues,
				fmt.Sprintf("Account duplicates an existing %s account in the programme", account.DeliveryMechanism.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *MergeService) flagAccount(tx *gorm.DB, rdi *models.RegistrationDataImport, account models.Account, issues map[string]interface{}, description string) error {
	if err := s.individuals.DeactivateAccount(tx, account.ID); err != nil {
		return err
	}
	_, err := s.tickets.CreateAccountDataTicket(tx, grievance_services.AccountDataIssueParams{
		BusinessAreaID:           rdi.BusinessAreaID,
		ProgramID:                rdi.ProgramID,
		RegistrationDataImportID: rdi.ID,
		IndividualID:             account.IndividualID,
		Issues:                   issues,
		Description:              description,
	})
	return err
}

func (s *MergeService) postponeDeduplication(tx *gorm.DB, individuals []models.Individual) error {
	for i := range individuals {
		ind := &individuals[i]
		ind.DeduplicationBatchStatus = models.PostponedDeduplication
		ind.DeduplicationGoldenRecordStatus = models.PostponedDeduplication
		if err := s.individuals.UpdateDeduplicationResults(tx, ind); err != nil {
			return err
		}
	}
	return nil
}

// RunDeduplication recomputes deduplication statuses and statistics for a
// pending import without merging it. Tickets are only raised later, at
// merge time. A failure parks the import in DEDUPLICATION_FAILED.
func (s *MergeService) RunDeduplication(ctx context.Context, importID uuid.UUID) error {
	rdi, err := s.imports.GetByID(nil, importID)
	if err != nil {
		return err
	}
	switch rdi.Status {
	case models.InReviewImport, models.DeduplicationImport, models.DeduplicationFailedImport:
	default:
		return fmt.Errorf("import %s cannot be deduplicated from status %s", rdi.Name, rdi.Status)
	}
	if rdi.BusinessArea == nil {
		return fmt.Errorf("import %s is missing its business area", rdi.Name)
	}
	if rdi.BusinessArea.PostponeDeduplication {
		config.Logger.Info("Deduplication postponed for business area",
			zap.String("importID", importID.String()))
		return nil
	}

	if err := s.imports.UpdateStatus(nil, importID, models.DeduplicationImport); err != nil {
		return err
	}

	dedupErr := s.tx.Transaction(func(tx *gorm.DB) error {
		individuals, err := s.individuals.FindPendingByImport(tx, rdi.ID)
		if err != nil {
			return err
		}
		var stats mergeStats
		if err := s.deduplicate(ctx, tx, rdi, individuals, &stats, false); err != nil {
			return err
		}
		rdi.Status = models.InReviewImport
		rdi.BatchDuplicates = stats.batchDuplicates
		rdi.BatchUnique = stats.batchUnique
		rdi.GoldenRecordPossibleDuplicates = stats.goldenPossible
		rdi.GoldenRecordUnique = stats.goldenUnique
		return s.imports.UpdateMergeStats(tx, rdi)
	})
	if dedupErr != nil {
		if err := s.imports.UpdateStatus(nil, importID, models.DeduplicationFailedImport); err != nil {
			config.Logger.Error("Failed to record deduplication failure", zap.Error(err))
		}
		config.Logger.Error("Deduplication failed",
			zap.Error(dedupErr), zap.String("importID", importID.String()))
		return dedupErr
	}
	return nil
}

// deduplicate classifies every pending individual within the batch and
// against the existing population. The first occurrence of a signature wins
// the batch; later occurrences are hard duplicates. Ambiguous matches
// against the population become needs-adjudication tickets when
// createTickets is set, which only the merge pipeline does.
func (s *MergeService) deduplicate(ctx context.Context, tx *gorm.DB, rdi *models.RegistrationDataImport, individuals []models.Individual, stats *mergeStats, createTickets bool) error {
	batchMatches := s.dedup.DeduplicateBatch(individuals)

	kept := make(map[uuid.UUID]bool)
	duplicatesOf := make(map[uuid.UUID][]grievance_services.PossibleDuplicateRef)

	for i := range individuals {
		ind := &individuals[i]

		var goldenID uuid.UUID
		var matchScore float64
		for _, match := range batchMatches[ind.ID] {
			if kept[match.IndividualID] {
				goldenID = match.IndividualID
				matchScore = match.Score
				break
			}
		}

		if goldenID != uuid.Nil {
			ind.DeduplicationBatchStatus = models.DuplicateDeduplication
			ind.DeduplicationGoldenRecordStatus = models.DuplicateDeduplication
			ind.DeduplicationBatchResults = dedup_services.MarshalBatchResults(batchMatches[ind.ID])
			ind.Duplicate = true
			duplicatesOf[goldenID] = append(duplicatesOf[goldenID], grievance_services.PossibleDuplicateRef{
				IndividualID: ind.ID,
				Score:        matchScore,
			})
			stats.batchDuplicates++
			if err := s.individuals.UpdateDeduplicationResults(tx, ind); err != nil {
				return err
			}
			continue
		}

		kept[ind.ID] = true
		ind.DeduplicationBatchStatus = models.UniqueDeduplication
		if len(batchMatches[ind.ID]) > 0 {
			ind.DeduplicationBatchResults = dedup_services.MarshalBatchResults(batchMatches[ind.ID])
		}
		stats.batchUnique++

		matches, err := s.dedup.FindPossibleDuplicates(ctx, *ind, rdi.BusinessArea.DeduplicationPossibleDuplicateScore)
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			ind.DeduplicationGoldenRecordStatus = models.NeedsAdjudicationDeduplication
			ind.DeduplicationGoldenRecordResults = marshalPopulationMatches(matches)
			stats.goldenPossible++

			if createTickets {
				refs := make([]grievance_services.PossibleDuplicateRef, 0, len(matches))
				for _, match := range matches {
					refs = append(refs, grievance_services.PossibleDuplicateRef{
						IndividualID: match.IndividualID,
						Score:        match.Score,
					})
				}
				if _, err := s.tickets.CreateNeedsAdjudicationTicket(tx, grievance_services.NeedsAdjudicationParams{
					BusinessAreaID:           rdi.BusinessAreaID,
					ProgramID:                rdi.ProgramID,
					RegistrationDataImportID: rdi.ID,
					GoldenRecordIndividualID: ind.ID,
					PossibleDuplicates:       refs,
					Description:              "Possible duplicate of existing population members",
				}); err != nil {
					return err
				}
			}
		} else {
			ind.DeduplicationGoldenRecordStatus = models.UniqueDeduplication
			stats.goldenUnique++
		}
		if err := s.individuals.UpdateDeduplicationResults(tx, ind); err != nil {
			return err
		}
	}

	if !createTickets {
		return nil
	}
	for goldenID, refs := range duplicatesOf {
		if _, err := s.tickets.CreateNeedsAdjudicationTicket(tx, grievance_services.NeedsAdjudicationParams{
			BusinessAreaID:           rdi.BusinessAreaID,
			ProgramID:                rdi.ProgramID,
			RegistrationDataImportID: rdi.ID,
			GoldenRecordIndividualID: goldenID,
			PossibleDuplicates:       refs,
			Description:              "Duplicates detected within the import batch",
		}); err != nil {
			return err
		}
	}
	return nil
}

// screenAgainstSanctionList flags hits as system-flagging tickets. Screening
// service failures are logged and skipped, never fatal to the merge.
func (s *MergeService) screenAgainstSanctionList(ctx context.Context, tx *gorm.DB, rdi *models.RegistrationDataImport, individuals []models.Individual) {
	hits, err := s.sanctions.ScreenIndividuals(ctx, individuals)
	if err != nil {
		config.Logger.Warn("Sanction list screening failed, skipping",
			zap.Error(err), zap.String("importID", rdi.ID.String()))
		return
	}

	for _, hit := range hits {
		individualID, err := uuid.Parse(hit.IndividualID)
		if err != nil {
			config.Logger.Warn("Skipping sanction hit with malformed individual id",
				zap.String("individualID", hit.IndividualID))
			continue
		}
		if _, err := s.tickets.CreateSystemFlaggingTicket(tx, grievance_services.SystemFlaggingParams{
			BusinessAreaID:           rdi.BusinessAreaID,
			ProgramID:                rdi.ProgramID,
			RegistrationDataImportID: rdi.ID,
			IndividualID:             individualID,
			SanctionListRecord:       hit.RawRecord,
			Description:              fmt.Sprintf("Individual matches sanction list entry %s", hit.ReferenceID),
		}); err != nil {
			config.Logger.Error("Failed to create system flagging ticket",
				zap.Error(err), zap.String("individualID", individualID.String()))
		}
	}
}

// deduplicateBiometrics runs the face engine for programs that enable it.
// Engine failures are logged and skipped.
func (s *MergeService) deduplicateBiometrics(ctx context.Context, tx *gorm.DB, rdi *models.RegistrationDataImport, individuals []models.Individual, stats *mergeStats) {
	matches, err := s.biometric.DeduplicateIndividuals(ctx, rdi.ProgramID, individuals)
	if err != nil {
		config.Logger.Warn("Biometric deduplication failed, skipping",
			zap.Error(err), zap.String("importID", rdi.ID.String()))
		return
	}
	if len(matches) == 0 {
		return
	}

	matchedIDs := make([]uuid.UUID, 0, len(matches))
	for _, match := range matches {
		matchedIDs = append(matchedIDs, match.MatchedIndividualID)
	}
	matched, err := s.individuals.FindByIDs(tx, matchedIDs)
	if err != nil {
		config.Logger.Error("Failed to resolve biometric matches", zap.Error(err))
		return
	}
	importOf := make(map[uuid.UUID]uuid.UUID, len(matched))
	for _, ind := range matched {
		importOf[ind.ID] = ind.RegistrationDataImportID
	}

	siblingCounts := make(map[uuid.UUID]int)
	for _, match := range matches {
		if _, err := s.tickets.CreateNeedsAdjudicationTicket(tx, grievance_services.NeedsAdjudicationParams{
			BusinessAreaID:           rdi.BusinessAreaID,
			ProgramID:                rdi.ProgramID,
			RegistrationDataImportID: rdi.ID,
			GoldenRecordIndividualID: match.IndividualID,
			PossibleDuplicates: []grievance_services.PossibleDuplicateRef{
				{IndividualID: match.MatchedIndividualID, Score: match.Similarity},
			},
			IsBiometric: true,
			Description: "Possible duplicate detected by biometric deduplication",
		}); err != nil {
			config.Logger.Error("Failed to create biometric adjudication ticket", zap.Error(err))
			continue
		}
		stats.biometricDuplicates++

		if siblingImportID, ok := importOf[match.MatchedIndividualID]; ok && siblingImportID != rdi.ID {
			siblingCounts[siblingImportID]++
		}
	}

	for siblingImportID, count := range siblingCounts {
		if err := s.imports.IncrementBiometricDuplicates(tx, siblingImportID, count); err != nil {
			config.Logger.Error("Failed to update sibling import biometric stats",
				zap.Error(err), zap.String("importID", siblingImportID.String()))
		}
	}
}

func marshalPopulationMatches(matches []search_services.PopulationMatch) []byte {
	refs := make([]dedup_services.BatchMatch, 0, len(matches))
	for _, match := range matches {
		refs = append(refs, dedup_services.BatchMatch{
			IndividualID: match.IndividualID,
			FullName:     match.FullName,
			Score:        match.Score,
			Signal:       "population",
		})
	}
	return dedup_services.MarshalBatchResults(refs)
}
