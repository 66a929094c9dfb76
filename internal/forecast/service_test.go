package forecast

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

type fakeRepo struct {
	confirmed []models.Payout
	open      []models.Payout
	stored    []*models.Payout
	nearest   *models.Payout

	deleteCalls int
	insertCalls int
	lastOp      string

	created *models.Payout
	updated *models.Payout
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, payout *models.Payout) error {
	f.created = payout
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, payout *models.Payout) error {
	f.updated = payout
	return nil
}

func (f *fakeRepo) DeleteForecasted(ctx context.Context, accountID uuid.UUID) error {
	f.deleteCalls++
	f.lastOp = "delete"
	f.stored = nil
	return nil
}

func (f *fakeRepo) InsertForecasts(ctx context.Context, payouts []*models.Payout) error {
	f.insertCalls++
	f.lastOp = "insert"
	f.stored = append(f.stored, payouts...)
	return nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, accountID uuid.UUID, statuses ...enums.PayoutStatus) ([]models.Payout, error) {
	for _, status := range statuses {
		if status == enums.PayoutStatusOpen {
			return f.open, nil
		}
	}
	out := make([]models.Payout, 0, len(f.stored))
	for _, p := range f.stored {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepo) ListConfirmedSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.Payout, error) {
	return f.confirmed, nil
}

func (f *fakeRepo) NearestForecast(ctx context.Context, accountID uuid.UUID, date time.Time, windowDays int) (*models.Payout, error) {
	return f.nearest, nil
}

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

type fakeTxRepo struct {
	txs []models.AmazonTransaction
}

func (f *fakeTxRepo) ListSince(ctx context.Context, accountID uuid.UUID, since time.Time) ([]models.AmazonTransaction, error) {
	return f.txs, nil
}

type fakeAccounts struct {
	account *models.Account
	err     error
}

func (f *fakeAccounts) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.account, nil
}

func (f *fakeAccounts) ListWithConfirmedPayouts(ctx context.Context) ([]models.Account, error) {
	if f.account == nil {
		return nil, nil
	}
	return []models.Account{*f.account}, nil
}

type fakeLocks struct {
	held    map[string]string
	busy    bool
	setErr  error
	setNXed int
}

func (f *fakeLocks) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.setNXed++
	if f.setErr != nil {
		return false, f.setErr
	}
	if f.busy {
		return false, nil
	}
	if f.held == nil {
		f.held = map[string]string{}
	}
	f.held[key] = value.(string)
	return true, nil
}

func (f *fakeLocks) Get(ctx context.Context, key string) (string, error) {
	return f.held[key], nil
}

func (f *fakeLocks) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.held, key)
	}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

type serviceFixture struct {
	svc      Service
	repo     *fakeRepo
	tx       *fakeTxRunner
	locks    *fakeLocks
	accounts *fakeAccounts
}

func newServiceFixture(t *testing.T, account *models.Account) *serviceFixture {
	t.Helper()

	repo := &fakeRepo{}
	tx := &fakeTxRunner{}
	locks := &fakeLocks{}
	accounts := &fakeAccounts{account: account}

	svc, err := NewService(ServiceParams{
		Logger:       testLogger(),
		DB:           tx,
		Repo:         repo,
		Transactions: &fakeTxRepo{},
		Accounts:     accounts,
		Locks:        locks,
		Config:       testForecastConfig(t),
	})
	if err != nil {
		t.Fatalf("NewService error: %v", err)
	}
	return &serviceFixture{svc: svc, repo: repo, tx: tx, locks: locks, accounts: accounts}
}

func seasonalAccount() *models.Account {
	return &models.Account{
		ID:             uuid.New(),
		Name:           "Test Seller",
		ForecastMethod: enums.ForecastMethodSeasonalBiweekly,
		RiskTier:       enums.RiskTierMedium,
	}
}

func TestService_GenerateReplacesForecastSet(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)
	asOf := day(2026, time.July, 15)

	fx.repo.confirmed = []models.Payout{
		confirmedPayout(day(2026, time.June, 8), 1_000_000),
		confirmedPayout(day(2026, time.June, 22), 1_000_000),
		confirmedPayout(day(2026, time.July, 6), 1_000_000),
	}

	payouts, err := fx.svc.Generate(context.Background(), GenerateInput{
		AccountID: account.ID,
		AsOf:      asOf,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if len(payouts) != 6 {
		t.Fatalf("expected 6 forecast rows, got %d", len(payouts))
	}
	for _, p := range payouts {
		if p.Status != enums.PayoutStatusForecasted {
			t.Errorf("row status = %s, want forecasted", p.Status)
		}
		if p.Method == nil || *p.Method != enums.ForecastMethodSeasonalBiweekly {
			t.Errorf("row method = %v, want seasonal_biweekly", p.Method)
		}
		if len(p.ModelInputs) == 0 {
			t.Error("row missing model inputs")
		}
	}

	if fx.tx.calls != 1 {
		t.Errorf("expected one transaction, got %d", fx.tx.calls)
	}
	if fx.repo.deleteCalls != 1 || fx.repo.insertCalls != 1 {
		t.Errorf("delete=%d insert=%d, want 1 and 1", fx.repo.deleteCalls, fx.repo.insertCalls)
	}
	if fx.repo.lastOp != "insert" {
		t.Error("insert must follow the delete")
	}
	if len(fx.locks.held) != 0 {
		t.Error("lock must be released after generation")
	}
}

func TestService_GenerateIsRepeatable(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)
	asOf := day(2026, time.July, 15)

	fx.repo.confirmed = []models.Payout{
		confirmedPayout(day(2026, time.June, 8), 1_000_000),
		confirmedPayout(day(2026, time.June, 22), 1_100_000),
		confirmedPayout(day(2026, time.July, 6), 1_050_000),
	}

	input := GenerateInput{AccountID: account.ID, AsOf: asOf}

	first, err := fx.svc.Generate(context.Background(), input)
	if err != nil {
		t.Fatalf("first Generate error: %v", err)
	}
	second, err := fx.svc.Generate(context.Background(), input)
	if err != nil {
		t.Fatalf("second Generate error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("row counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].PayoutDate.Equal(second[i].PayoutDate) {
			t.Errorf("row %d date differs: %s vs %s", i, first[i].PayoutDate, second[i].PayoutDate)
		}
		if first[i].TotalAmountCents != second[i].TotalAmountCents {
			t.Errorf("row %d amount differs: %d vs %d", i, first[i].TotalAmountCents, second[i].TotalAmountCents)
		}
	}
	if len(fx.repo.stored) != len(second) {
		t.Errorf("stored %d rows after regeneration, want %d", len(fx.repo.stored), len(second))
	}
}

func TestService_GenerateLockBusy(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)
	fx.locks.busy = true

	_, err := fx.svc.Generate(context.Background(), GenerateInput{
		AccountID: account.ID,
		AsOf:      day(2026, time.July, 15),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	if fx.repo.deleteCalls != 0 {
		t.Error("must not touch stored forecasts while locked out")
	}
}

func TestService_GenerateInsufficientHistoryLeavesRows(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)

	fx.repo.confirmed = []models.Payout{
		confirmedPayout(day(2026, time.July, 6), 1_000_000),
	}

	_, err := fx.svc.Generate(context.Background(), GenerateInput{
		AccountID: account.ID,
		AsOf:      day(2026, time.July, 15),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientHistory {
		t.Fatalf("expected INSUFFICIENT_HISTORY, got %v", err)
	}
	if fx.repo.deleteCalls != 0 || fx.repo.insertCalls != 0 {
		t.Error("a failed model run must not modify stored forecasts")
	}
	if len(fx.locks.held) != 0 {
		t.Error("lock must be released after a failed run")
	}
}

func TestService_GenerateMethodOverride(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)
	method := enums.ForecastMethodDaily

	payouts, err := fx.svc.Generate(context.Background(), GenerateInput{
		AccountID: account.ID,
		AsOf:      day(2026, time.July, 15),
		Method:    &method,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(payouts) != 90 {
		t.Fatalf("expected 90 daily rows, got %d", len(payouts))
	}
	for _, p := range payouts {
		if p.Method == nil || *p.Method != enums.ForecastMethodDaily {
			t.Fatalf("row method = %v, want daily", p.Method)
		}
	}
}

func TestService_ConfirmSettlementMatchesForecast(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)

	forecastDate := day(2026, time.July, 29)
	fx.repo.nearest = &models.Payout{
		ID:               uuid.New(),
		AccountID:        account.ID,
		PayoutDate:       forecastDate,
		TotalAmountCents: 1_000_000,
		Status:           enums.PayoutStatusForecasted,
	}

	asOf := day(2026, time.July, 31)
	got, err := fx.svc.ConfirmSettlement(context.Background(), ConfirmInput{
		AccountID:        account.ID,
		PayoutDate:       day(2026, time.July, 30),
		TotalAmountCents: 1_100_000,
		AsOf:             asOf,
	})
	if err != nil {
		t.Fatalf("ConfirmSettlement error: %v", err)
	}

	if got.Status != enums.PayoutStatusConfirmed {
		t.Errorf("status = %s, want confirmed", got.Status)
	}
	if got.TotalAmountCents != 1_100_000 {
		t.Errorf("amount = %d, want realized 1100000", got.TotalAmountCents)
	}
	if got.OriginalForecastCents == nil || *got.OriginalForecastCents != 1_000_000 {
		t.Errorf("original forecast = %v, want 1000000", got.OriginalForecastCents)
	}
	if got.ForecastAccuracyPct == nil {
		t.Fatal("expected accuracy to be recorded")
	}
	// 100 - |1,000,000 - 1,100,000| / 1,100,000 * 100
	if diff := *got.ForecastAccuracyPct - 90.9090909; diff < -0.001 || diff > 0.001 {
		t.Errorf("accuracy = %f, want ~90.909", *got.ForecastAccuracyPct)
	}
	if got.ForecastReplacedAt == nil || !got.ForecastReplacedAt.Equal(asOf) {
		t.Errorf("replaced at = %v, want %s", got.ForecastReplacedAt, asOf)
	}
	if fx.repo.updated == nil {
		t.Error("expected the matched row to be updated in place")
	}
}

func TestService_ConfirmSettlementWithoutMatch(t *testing.T) {
	account := seasonalAccount()
	fx := newServiceFixture(t, account)

	got, err := fx.svc.ConfirmSettlement(context.Background(), ConfirmInput{
		AccountID:        account.ID,
		PayoutDate:       day(2026, time.July, 30),
		TotalAmountCents: 900_000,
		AsOf:             day(2026, time.July, 31),
	})
	if err != nil {
		t.Fatalf("ConfirmSettlement error: %v", err)
	}
	if got.Status != enums.PayoutStatusConfirmed {
		t.Errorf("status = %s, want confirmed", got.Status)
	}
	if got.OriginalForecastCents != nil {
		t.Error("unmatched settlement must not carry a forecast amount")
	}
	if fx.repo.created == nil {
		t.Error("expected a new confirmed row")
	}
}

func TestAccuracyPct(t *testing.T) {
	cases := []struct {
		forecast int64
		actual   int64
		want     float64
	}{
		{1_000_000, 1_000_000, 100},
		{900_000, 1_000_000, 90},
		{0, 1_000_000, 0},
		{5_000_000, 1_000_000, 0},
		{1_000_000, 0, 0},
	}
	for _, tc := range cases {
		got := accuracyPct(tc.forecast, tc.actual)
		if diff := got - tc.want; diff < -0.0001 || diff > 0.0001 {
			t.Errorf("accuracyPct(%d, %d) = %f, want %f", tc.forecast, tc.actual, got, tc.want)
		}
	}
}
