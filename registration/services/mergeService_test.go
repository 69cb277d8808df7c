package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hope-backend/config"
	"hope-backend/db/models"
	dedup_services "hope-backend/deduplication/services"
	grievance_services "hope-backend/grievance/services"
	search_services "hope-backend/search/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	config.Logger = zap.NewNop()
}

type fakeTxManager struct{}

func (f *fakeTxManager) Transaction(fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeImportStore struct {
	rdi           *models.RegistrationDataImport
	statusUpdates []models.ImportStatus
	mergeErrorMsg string
	statsUpdate   *models.RegistrationDataImport
	siblingDeltas map[uuid.UUID]int
}

func (f *fakeImportStore) GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error) {
	copied := *f.rdi
	return &copied, nil
}

func (f *fakeImportStore) UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error {
	f.statusUpdates = append(f.statusUpdates, status)
	return nil
}

func (f *fakeImportStore) SetMergeError(importID uuid.UUID, message string) error {
	f.mergeErrorMsg = message
	return nil
}

func (f *fakeImportStore) UpdateMergeStats(tx *gorm.DB, rdi *models.RegistrationDataImport) error {
	copied := *rdi
	f.statsUpdate = &copied
	return nil
}

func (f *fakeImportStore) IncrementBiometricDuplicates(tx *gorm.DB, importID uuid.UUID, delta int) error {
	if f.siblingDeltas == nil {
		f.siblingDeltas = make(map[uuid.UUID]int)
	}
	f.siblingDeltas[importID] += delta
	return nil
}

type fakeHouseholdStore struct {
	pending      []models.Household
	markedMerged bool
}

func (f *fakeHouseholdStore) FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Household, error) {
	return f.pending, nil
}

func (f *fakeHouseholdStore) MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error {
	f.markedMerged = true
	return nil
}

type fakeIndividualStore struct {
	pending       []models.Individual
	others        []models.Individual
	accounts      []models.Account
	duplicateKeys map[string]int64

	markedMerged   bool
	childrenMarked bool
	dedupResults   map[uuid.UUID]models.Individual
	deactivated    []uuid.UUID
	writtenKeys    map[uuid.UUID]string
}

func newFakeIndividualStore() *fakeIndividualStore {
	return &fakeIndividualStore{
		duplicateKeys: make(map[string]int64),
		dedupResults:  make(map[uuid.UUID]models.Individual),
		writtenKeys:   make(map[uuid.UUID]string),
	}
}

func (f *fakeIndividualStore) FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Individual, error) {
	return f.pending, nil
}

func (f *fakeIndividualStore) FindByIDs(tx *gorm.DB, individualIDs []uuid.UUID) ([]models.Individual, error) {
	wanted := make(map[uuid.UUID]bool, len(individualIDs))
	for _, id := range individualIDs {
		wanted[id] = true
	}
	var found []models.Individual
	for _, ind := range append(f.pending, f.others...) {
		if wanted[ind.ID] {
			found = append(found, ind)
		}
	}
	return found, nil
}

func (f *fakeIndividualStore) FindPendingAccountsByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Account, error) {
	return f.accounts, nil
}

func (f *fakeIndividualStore) CountActiveAccountsByUniqueKey(tx *gorm.DB, programID uuid.UUID, mechanismID uuid.UUID, uniqueKey string, excludeAccountID uuid.UUID) (int64, error) {
	return f.duplicateKeys[uniqueKey], nil
}

func (f *fakeIndividualStore) MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error {
	f.markedMerged = true
	return nil
}

func (f *fakeIndividualStore) MarkChildRecordsMergedByImport(tx *gorm.DB, importID uuid.UUID) error {
	f.childrenMarked = true
	return nil
}

func (f *fakeIndividualStore) UpdateDeduplicationResults(tx *gorm.DB, individual *models.Individual) error {
	f.dedupResults[individual.ID] = *individual
	return nil
}

func (f *fakeIndividualStore) DeactivateAccount(tx *gorm.DB, accountID uuid.UUID) error {
	f.deactivated = append(f.deactivated, accountID)
	return nil
}

func (f *fakeIndividualStore) SetAccountUniqueKey(tx *gorm.DB, accountID uuid.UUID, uniqueKey string) error {
	f.writtenKeys[accountID] = uniqueKey
	return nil
}

type fakePopulationCounter struct {
	recalculated [][]uuid.UUID
}

func (f *fakePopulationCounter) RecalculateForHouseholds(tx *gorm.DB, householdIDs []uuid.UUID) error {
	f.recalculated = append(f.recalculated, householdIDs)
	return nil
}

type fakeTicketCreator struct {
	adjudication []grievance_services.NeedsAdjudicationParams
	flagging     []grievance_services.SystemFlaggingParams
	accountData  []grievance_services.AccountDataIssueParams
}

func (f *fakeTicketCreator) CreateNeedsAdjudicationTicket(tx *gorm.DB, params grievance_services.NeedsAdjudicationParams) (*models.GrievanceTicket, error) {
	f.adjudication = append(f.adjudication, params)
	return &models.GrievanceTicket{ID: uuid.New()}, nil
}

func (f *fakeTicketCreator) CreateSystemFlaggingTicket(tx *gorm.DB, params grievance_services.SystemFlaggingParams) (*models.GrievanceTicket, error) {
	f.flagging = append(f.flagging, params)
	return &models.GrievanceTicket{ID: uuid.New()}, nil
}

func (f *fakeTicketCreator) CreateAccountDataTicket(tx *gorm.DB, params grievance_services.AccountDataIssueParams) (*models.GrievanceTicket, error) {
	f.accountData = append(f.accountData, params)
	return &models.GrievanceTicket{ID: uuid.New()}, nil
}

type fakePopulationSearcher struct {
	matches map[uuid.UUID][]search_services.PopulationMatch
	err     error
}

func (f *fakePopulationSearcher) SearchSimilarIndividuals(ctx context.Context, individual models.Individual, minScore float64) ([]search_services.PopulationMatch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches[individual.ID], nil
}

type fakeSanctionScreener struct {
	called bool
	hits   []dedup_services.SanctionListHit
	err    error
}

func (f *fakeSanctionScreener) ScreenIndividuals(ctx context.Context, individuals []models.Individual) ([]dedup_services.SanctionListHit, error) {
	f.called = true
	return f.hits, f.err
}

type fakeBiometricEngine struct {
	called  bool
	matches []dedup_services.BiometricMatch
	err     error
}

func (f *fakeBiometricEngine) DeduplicateIndividuals(ctx context.Context, programID uuid.UUID, individuals []models.Individual) ([]dedup_services.BiometricMatch, error) {
	f.called = true
	return f.matches, f.err
}

type fakePopulationIndexer struct {
	indexedIndividuals int
	indexedHouseholds  int
	deletedImports     []uuid.UUID
	failIndividuals    bool
}

func (f *fakePopulationIndexer) IndexIndividuals(ctx context.Context, individuals []models.Individual) error {
	if f.failIndividuals {
		return errors.New("elasticsearch unavailable")
	}
	f.indexedIndividuals += len(individuals)
	return nil
}

func (f *fakePopulationIndexer) IndexHouseholds(ctx context.Context, households []models.Household) error {
	f.indexedHouseholds += len(households)
	return nil
}

func (f *fakePopulationIndexer) DeleteImportDocuments(ctx context.Context, importID uuid.UUID) error {
	f.deletedImports = append(f.deletedImports, importID)
	return nil
}

type fakeCollectionLinker struct {
	linkedHouseholds  int
	linkedIndividuals int
}

func (f *fakeCollectionLinker) LinkHousehold(tx *gorm.DB, household *models.Household) error {
	f.linkedHouseholds++
	return nil
}

func (f *fakeCollectionLinker) LinkIndividual(tx *gorm.DB, individual *models.Individual) error {
	f.linkedIndividuals++
	return nil
}

type fakeFailureNotifier struct {
	notified []string
}

func (f *fakeFailureNotifier) NotifyMergeFailure(importName string, mergeErr error) {
	f.notified = append(f.notified, importName)
}

type mergeFixture struct {
	service     *MergeService
	imports     *fakeImportStore
	households  *fakeHouseholdStore
	individuals *fakeIndividualStore
	counts      *fakePopulationCounter
	tickets     *fakeTicketCreator
	searcher    *fakePopulationSearcher
	sanctions   *fakeSanctionScreener
	biometric   *fakeBiometricEngine
	index       *fakePopulationIndexer
	linker      *fakeCollectionLinker
	notifier    *fakeFailureNotifier
}

func newMergeFixture(rdi *models.RegistrationDataImport) *mergeFixture {
	f := &mergeFixture{
		imports:     &fakeImportStore{rdi: rdi},
		households:  &fakeHouseholdStore{},
		individuals: newFakeIndividualStore(),
		counts:      &fakePopulationCounter{},
		tickets:     &fakeTicketCreator{},
		searcher:    &fakePopulationSearcher{},
		sanctions:   &fakeSanctionScreener{},
		biometric:   &fakeBiometricEngine{},
		index:       &fakePopulationIndexer{},
		linker:      &fakeCollectionLinker{},
		notifier:    &fakeFailureNotifier{},
	}
	f.service = NewMergeService(
		&fakeTxManager{},
		f.imports,
		f.households,
		f.individuals,
		f.counts,
		f.tickets,
		dedup_services.NewBiographicEngine(f.searcher),
		f.sanctions,
		f.biometric,
		f.index,
		f.linker,
		f.notifier,
	)
	return f
}

func testImport(status models.ImportStatus) *models.RegistrationDataImport {
	return &models.RegistrationDataImport{
		ID:             uuid.New(),
		Name:           "village survey round 3",
		Status:         status,
		BusinessAreaID: uuid.New(),
		ProgramID:      uuid.New(),
		DataSource:     models.XlsDataSource,
		BusinessArea: &models.BusinessArea{
			DeduplicationPossibleDuplicateScore: 6.0,
		},
		Program: &models.Program{},
	}
}

func pendingIndividual(name string, birth *time.Time, sex models.Sex) models.Individual {
	return models.Individual{
		ID:        uuid.New(),
		FullName:  name,
		BirthDate: birth,
		Sex:       sex,
	}
}

func birth(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestMergeImport_PostponedDeduplicationMergesEverythingWithoutTickets(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	rdi.BusinessArea.PostponeDeduplication = true

	fixture := newMergeFixture(rdi)
	fixture.households.pending = []models.Household{{ID: uuid.New()}, {ID: uuid.New()}}
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
		pendingIndividual("Anna Nowak", birth(1985, 2, 10), models.FemaleSex),
	}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	assert.True(t, fixture.households.markedMerged)
	assert.True(t, fixture.individuals.markedMerged)
	assert.Empty(t, fixture.tickets.adjudication)
	assert.Empty(t, fixture.tickets.flagging)

	require.NotNil(t, fixture.imports.statsUpdate)
	assert.Equal(t, models.MergedImport, fixture.imports.statsUpdate.Status)
	assert.Equal(t, 2, fixture.imports.statsUpdate.NumberOfHouseholds)
	assert.Equal(t, 3, fixture.imports.statsUpdate.NumberOfIndividuals)
	assert.Zero(t, fixture.imports.statsUpdate.BatchDuplicates)

	for _, ind := range fixture.individuals.dedupResults {
		assert.Equal(t, models.PostponedDeduplication, ind.DeduplicationBatchStatus)
		assert.Equal(t, models.PostponedDeduplication, ind.DeduplicationGoldenRecordStatus)
	}
	assert.Equal(t, 3, fixture.index.indexedIndividuals)
	assert.Equal(t, 2, fixture.index.indexedHouseholds)
}

func TestMergeImport_BatchDuplicateMarkedAndTicketed(t *testing.T) {
	rdi := testImport(models.MergeScheduledImport)
	fixture := newMergeFixture(rdi)

	golden := pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex)
	duplicate := pendingIndividual("jan  KOWALSKI", birth(1990, 5, 1), models.MaleSex)
	fixture.individuals.pending = []models.Individual{golden, duplicate}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	goldenResult := fixture.individuals.dedupResults[golden.ID]
	duplicateResult := fixture.individuals.dedupResults[duplicate.ID]

	assert.Equal(t, models.UniqueDeduplication, goldenResult.DeduplicationBatchStatus)
	assert.Equal(t, models.DuplicateDeduplication, duplicateResult.DeduplicationBatchStatus)
	assert.True(t, duplicateResult.Duplicate)
	assert.False(t, goldenResult.Duplicate)

	require.Len(t, fixture.tickets.adjudication, 1)
	ticket := fixture.tickets.adjudication[0]
	assert.Equal(t, golden.ID, ticket.GoldenRecordIndividualID)
	require.Len(t, ticket.PossibleDuplicates, 1)
	assert.Equal(t, duplicate.ID, ticket.PossibleDuplicates[0].IndividualID)

	assert.Equal(t, 1, fixture.imports.statsUpdate.BatchDuplicates)
	assert.Equal(t, 1, fixture.imports.statsUpdate.BatchUnique)
}

func TestMergeImport_PopulationMatchNeedsAdjudication(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)

	incoming := pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex)
	existingID := uuid.New()
	fixture.individuals.pending = []models.Individual{incoming}
	fixture.searcher.matches = map[uuid.UUID][]search_services.PopulationMatch{
		incoming.ID: {{IndividualID: existingID, FullName: "Jan Kowalski", Score: 8.5}},
	}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	result := fixture.individuals.dedupResults[incoming.ID]
	assert.Equal(t, models.NeedsAdjudicationDeduplication, result.DeduplicationGoldenRecordStatus)
	assert.False(t, result.Duplicate)

	require.Len(t, fixture.tickets.adjudication, 1)
	assert.Equal(t, incoming.ID, fixture.tickets.adjudication[0].GoldenRecordIndividualID)
	assert.Equal(t, existingID, fixture.tickets.adjudication[0].PossibleDuplicates[0].IndividualID)
	assert.Equal(t, 1, fixture.imports.statsUpdate.GoldenRecordPossibleDuplicates)
}

func TestMergeImport_SanctionScreeningRequiresBothFlags(t *testing.T) {
	cases := []struct {
		name         string
		businessArea bool
		importFlag   bool
		expected     bool
	}{
		{"both enabled", true, true, true},
		{"business area only", true, false, false},
		{"import only", false, true, false},
		{"neither", false, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rdi := testImport(models.InReviewImport)
			rdi.BusinessArea.ScreenBeneficiary = tc.businessArea
			rdi.ScreenBeneficiary = tc.importFlag

			fixture := newMergeFixture(rdi)
			fixture.individuals.pending = []models.Individual{
				pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
			}

			err := fixture.service.MergeImport(context.Background(), rdi.ID)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, fixture.sanctions.called)
		})
	}
}

func TestMergeImport_SanctionHitCreatesFlaggingTicket(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	rdi.BusinessArea.ScreenBeneficiary = true
	rdi.ScreenBeneficiary = true

	fixture := newMergeFixture(rdi)
	flagged := pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex)
	fixture.individuals.pending = []models.Individual{flagged}
	fixture.sanctions.hits = []dedup_services.SanctionListHit{
		{IndividualID: flagged.ID.String(), ListedName: "Jan Kowalski", ReferenceID: "SL-001"},
	}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	require.Len(t, fixture.tickets.flagging, 1)
	assert.Equal(t, flagged.ID, fixture.tickets.flagging[0].IndividualID)
}

func TestMergeImport_SanctionServiceFailureDoesNotAbortMerge(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	rdi.BusinessArea.ScreenBeneficiary = true
	rdi.ScreenBeneficiary = true

	fixture := newMergeFixture(rdi)
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
	}
	fixture.sanctions.err = errors.New("sanction list timeout")

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)
	assert.True(t, fixture.individuals.markedMerged)
	assert.Empty(t, fixture.tickets.flagging)
}

func TestMergeImport_BiometricRunsOnlyWhenProgramEnablesIt(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
	}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)
	assert.False(t, fixture.biometric.called)

	rdi.Program.BiometricDeduplicationEnabled = true
	fixture = newMergeFixture(rdi)
	incoming := pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex)
	siblingImportID := uuid.New()
	sibling := models.Individual{ID: uuid.New(), RegistrationDataImportID: siblingImportID}
	fixture.individuals.pending = []models.Individual{incoming}
	fixture.individuals.others = []models.Individual{sibling}
	fixture.biometric.matches = []dedup_services.BiometricMatch{
		{IndividualID: incoming.ID, MatchedIndividualID: sibling.ID, Similarity: 0.93},
	}

	err = fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)
	assert.True(t, fixture.biometric.called)

	var biometricTickets int
	for _, ticket := range fixture.tickets.adjudication {
		if ticket.IsBiometric {
			biometricTickets++
		}
	}
	assert.Equal(t, 1, biometricTickets)
	assert.Equal(t, 1, fixture.imports.statsUpdate.BiometricDuplicates)
	assert.Equal(t, 1, fixture.imports.siblingDeltas[siblingImportID])
}

func TestMergeImport_InvalidAccountDeactivatedAndTicketed(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)

	individualID := uuid.New()
	mechanism := &models.DeliveryMechanism{
		ID:             uuid.New(),
		Code:           "mobile_money",
		Name:           "Mobile Money",
		RequiredFields: []string{"provider", "wallet_number"},
		UniqueFields:   []string{"wallet_number"},
	}
	broken := models.Account{
		ID:                  uuid.New(),
		IndividualID:        individualID,
		DeliveryMechanismID: mechanism.ID,
		DeliveryMechanism:   mechanism,
		Data:                map[string]interface{}{"provider": "acme"},
	}
	fixture.individuals.accounts = []models.Account{broken}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	assert.Contains(t, fixture.individuals.deactivated, broken.ID)
	require.Len(t, fixture.tickets.accountData, 1)
	assert.Equal(t, individualID, fixture.tickets.accountData[0].IndividualID)
	assert.Equal(t, "missing_required_fields", fixture.tickets.accountData[0].Issues["problem"])
}

func TestMergeImport_DuplicateAccountKeyDeactivatedAndTicketed(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)

	mechanism := &models.DeliveryMechanism{
		ID:             uuid.New(),
		Code:           "mobile_money",
		Name:           "Mobile Money",
		RequiredFields: []string{"wallet_number"},
		UniqueFields:   []string{"wallet_number"},
	}
	account := models.Account{
		ID:                  uuid.New(),
		IndividualID:        uuid.New(),
		DeliveryMechanismID: mechanism.ID,
		DeliveryMechanism:   mechanism,
		Data:                map[string]interface{}{"wallet_number": "255-700-123"},
	}
	fixture.individuals.accounts = []models.Account{account}
	fixture.individuals.duplicateKeys["mobile_money|255-700-123"] = 1

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	assert.Contains(t, fixture.individuals.deactivated, account.ID)
	require.Len(t, fixture.tickets.accountData, 1)
	assert.Equal(t, "duplicate_account", fixture.tickets.accountData[0].Issues["problem"])
	assert.Equal(t, "mobile_money|255-700-123", fixture.individuals.writtenKeys[account.ID])
}

func TestMergeImport_FailureCompensatesIndexAndSetsMergeError(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
	}
	fixture.index.failIndividuals = true

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.Error(t, err)

	assert.Contains(t, fixture.index.deletedImports, rdi.ID)
	assert.Contains(t, fixture.imports.mergeErrorMsg, "elasticsearch unavailable")
	assert.Equal(t, []string{rdi.Name}, fixture.notifier.notified)
}

func TestMergeImport_CrossPopulationSearchFailureAbortsMerge(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
	}
	fixture.searcher.err = errors.New("search cluster down")

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.Error(t, err)
	assert.NotEmpty(t, fixture.imports.mergeErrorMsg)
	assert.Nil(t, fixture.imports.statsUpdate)
}

func TestMergeImport_RejectedFromWrongStatus(t *testing.T) {
	for _, status := range []models.ImportStatus{models.LoadingImport, models.MergedImport, models.RefusedImport} {
		rdi := testImport(status)
		fixture := newMergeFixture(rdi)

		err := fixture.service.MergeImport(context.Background(), rdi.ID)
		require.Error(t, err, string(status))
		assert.Empty(t, fixture.imports.statusUpdates)
	}
}

func TestRunDeduplication_ComputesStatsWithoutTickets(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)

	golden := pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex)
	duplicate := pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex)
	fixture.individuals.pending = []models.Individual{golden, duplicate}

	err := fixture.service.RunDeduplication(context.Background(), rdi.ID)
	require.NoError(t, err)

	assert.Empty(t, fixture.tickets.adjudication)
	require.NotNil(t, fixture.imports.statsUpdate)
	assert.Equal(t, models.InReviewImport, fixture.imports.statsUpdate.Status)
	assert.Equal(t, 1, fixture.imports.statsUpdate.BatchDuplicates)
	assert.Equal(t, 1, fixture.imports.statsUpdate.BatchUnique)
	assert.False(t, fixture.households.markedMerged)
	assert.False(t, fixture.individuals.markedMerged)
}

func TestRunDeduplication_FailureParksImport(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	fixture := newMergeFixture(rdi)
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
	}
	fixture.searcher.err = errors.New("search cluster down")

	err := fixture.service.RunDeduplication(context.Background(), rdi.ID)
	require.Error(t, err)
	assert.Equal(t,
		[]models.ImportStatus{models.DeduplicationImport, models.DeduplicationFailedImport},
		fixture.imports.statusUpdates)
}

func TestMergeImport_ProgramPopulationImportLinksCollections(t *testing.T) {
	rdi := testImport(models.InReviewImport)
	rdi.DataSource = models.ProgramPopulationImportDataSource

	fixture := newMergeFixture(rdi)
	fixture.households.pending = []models.Household{{ID: uuid.New(), UnicefID: "HH-20-0001"}}
	fixture.individuals.pending = []models.Individual{
		pendingIndividual("Jan Kowalski", birth(1990, 5, 1), models.MaleSex),
	}

	err := fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, fixture.linker.linkedHouseholds)
	assert.Equal(t, 1, fixture.linker.linkedIndividuals)

	// Non program-population sources never link.
	rdi.DataSource = models.XlsDataSource
	fixture = newMergeFixture(rdi)
	fixture.households.pending = []models.Household{{ID: uuid.New(), UnicefID: "HH-20-0001"}}

	err = fixture.service.MergeImport(context.Background(), rdi.ID)
	require.NoError(t, err)
	assert.Zero(t, fixture.linker.linkedHouseholds)
}
