package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
	"github.com/flowcasthq/flowcast-backend/pkg/metrics"
)

// historyLookbackDays bounds how much confirmed history the models read.
const historyLookbackDays = 365

// transactionLookbackDays covers the daily model's trailing windows with
// room for late-reported settlement lines.
const transactionLookbackDays = 60

// Service generates, lists, and confirms payout forecasts.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) ([]models.Payout, error)
	List(ctx context.Context, accountID uuid.UUID) ([]models.Payout, error)
	ConfirmSettlement(ctx context.Context, input ConfirmInput) (*models.Payout, error)
}

// GenerateInput requests a full forecast regeneration for one account.
// Method overrides the account's configured model when set.
type GenerateInput struct {
	AccountID uuid.UUID
	AsOf      time.Time
	Method    *enums.ForecastMethod
}

// ConfirmInput records a realized settlement against the forecast set.
type ConfirmInput struct {
	AccountID        uuid.UUID
	PayoutDate       time.Time
	TotalAmountCents int64
	AsOf             time.Time
}

// lockStore is the redis surface the per-account generation lock needs.
type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// txRunner executes a function inside one database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	logg     *logger.Logger
	db       txRunner
	repo     Repository
	txRepo   TransactionRepository
	accounts AccountRepository
	locks    lockStore
	metrics  *metrics.ForecastRunMetrics
	cfg      config.ForecastConfig
}

// ServiceParams collects the dependencies a forecast service requires.
type ServiceParams struct {
	Logger       *logger.Logger
	DB           txRunner
	Repo         Repository
	Transactions TransactionRepository
	Accounts     AccountRepository
	Locks        lockStore
	Metrics      *metrics.ForecastRunMetrics
	Config       config.ForecastConfig
}

// NewService wires a forecast service from its dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if params.Locks == nil {
		return nil, fmt.Errorf("lock store required")
	}
	return &service{
		logg:     params.Logger,
		db:       params.DB,
		repo:     params.Repo,
		txRepo:   params.Transactions,
		accounts: params.Accounts,
		locks:    params.Locks,
		metrics:  params.Metrics,
		cfg:      params.Config,
	}, nil
}

func (s *service) Generate(ctx context.Context, input GenerateInput) ([]models.Payout, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.AsOf.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "as-of time is required")
	}

	account, err := s.accounts.Get(ctx, input.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}

	method := account.ForecastMethod
	if input.Method != nil {
		if !input.Method.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid forecast method %q", *input.Method))
		}
		method = *input.Method
	}
	ctx = s.logg.WithForecastMethod(s.logg.WithAccountID(ctx, account.ID.String()), string(method))

	release, acquired, err := s.acquireLock(ctx, account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire generation lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "forecast generation already in progress")
	}
	defer release()

	started := time.Now()
	payouts, err := s.generateLocked(ctx, account, method, input.AsOf)
	s.metrics.ObserveRun(string(method), time.Since(started), len(payouts), err)
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "rows", len(payouts)), "forecast regenerated")
	return payouts, nil
}

func (s *service) generateLocked(ctx context.Context, account *models.Account, method enums.ForecastMethod, asOf time.Time) ([]models.Payout, error) {
	history, err := s.loadHistory(ctx, account, method, asOf)
	if err != nil {
		return nil, err
	}

	model, err := s.modelFor(method)
	if err != nil {
		return nil, err
	}

	drafts, err := model.Generate(ctx, history)
	if err != nil {
		return nil, err
	}

	rows := make([]*models.Payout, 0, len(drafts))
	for _, draft := range drafts {
		rows = append(rows, &models.Payout{
			AccountID:        account.ID,
			PayoutDate:       draft.PayoutDate,
			TotalAmountCents: draft.AmountCents,
			Status:           enums.PayoutStatusForecasted,
			Method:           &method,
			ModelInputs:      draft.ModelInputs,
		})
	}

	// Replace-all contract: the old forecast generation is discarded and the
	// new one written inside a single transaction.
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteForecasted(ctx, account.ID); err != nil {
			return fmt.Errorf("delete forecasted rows: %w", err)
		}
		if err := repo.InsertForecasts(ctx, rows); err != nil {
			return fmt.Errorf("insert forecast rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store forecast set")
	}

	payouts := make([]models.Payout, 0, len(rows))
	for _, row := range rows {
		payouts = append(payouts, *row)
	}
	return payouts, nil
}

func (s *service) loadHistory(ctx context.Context, account *models.Account, method enums.ForecastMethod, asOf time.Time) (History, error) {
	since := asOf.AddDate(0, 0, -historyLookbackDays)
	confirmed, err := s.repo.ListConfirmedSince(ctx, account.ID, since)
	if err != nil {
		return History{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load confirmed payouts")
	}
	open, err := s.repo.ListByStatus(ctx, account.ID, enums.PayoutStatusOpen)
	if err != nil {
		return History{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open payouts")
	}

	var txs []models.AmazonTransaction
	if method == enums.ForecastMethodDaily {
		txs, err = s.txRepo.ListSince(ctx, account.ID, asOf.AddDate(0, 0, -transactionLookbackDays))
		if err != nil {
			return History{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settlement transactions")
		}
	}

	riskPct := 0.0
	if account.RiskAdjustmentPct != nil {
		riskPct = *account.RiskAdjustmentPct
	}
	return History{
		AsOf:              asOf,
		ConfirmedPayouts:  confirmed,
		OpenPayouts:       open,
		Transactions:      txs,
		RiskTier:          account.RiskTier,
		RiskAdjustmentPct: riskPct,
	}, nil
}

func (s *service) modelFor(method enums.ForecastMethod) (Model, error) {
	switch method {
	case enums.ForecastMethodDaily:
		return NewDailyModel(s.cfg), nil
	case enums.ForecastMethodSeasonalBiweekly:
		return NewSeasonalModel(s.cfg), nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("invalid forecast method %q", method))
	}
}

func (s *service) List(ctx context.Context, accountID uuid.UUID) ([]models.Payout, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	payouts, err := s.repo.ListByStatus(ctx, accountID, enums.PayoutStatusForecasted)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list forecasts")
	}
	return payouts, nil
}

// ConfirmSettlement records a realized payout. When a forecasted row falls
// within half a cycle of the realized date, that row becomes the confirmed
// row and keeps its original forecast amount for accuracy reporting.
func (s *service) ConfirmSettlement(ctx context.Context, input ConfirmInput) (*models.Payout, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.PayoutDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout date is required")
	}
	if input.TotalAmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout amount must be positive")
	}
	if input.AsOf.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "as-of time is required")
	}

	payoutDate := events.DateOnly(input.PayoutDate)
	window := s.cfg.CycleDays / 2
	if window < 1 {
		window = 1
	}

	match, err := s.repo.NearestForecast(ctx, input.AccountID, payoutDate, window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find matching forecast")
	}

	if match == nil {
		payout := &models.Payout{
			AccountID:        input.AccountID,
			PayoutDate:       payoutDate,
			TotalAmountCents: input.TotalAmountCents,
			Status:           enums.PayoutStatusConfirmed,
		}
		if err := s.repo.Create(ctx, payout); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create confirmed payout")
		}
		return payout, nil
	}

	original := match.TotalAmountCents
	accuracy := accuracyPct(original, input.TotalAmountCents)
	replacedAt := input.AsOf

	match.PayoutDate = payoutDate
	match.TotalAmountCents = input.TotalAmountCents
	match.Status = enums.PayoutStatusConfirmed
	match.OriginalForecastCents = &original
	match.ForecastAccuracyPct = &accuracy
	match.ForecastReplacedAt = &replacedAt

	if err := s.repo.Update(ctx, match); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm forecast row")
	}
	return match, nil
}

// accuracyPct is 100 minus the absolute percentage error against the
// realized amount, floored at zero.
func accuracyPct(forecastCents, actualCents int64) float64 {
	if actualCents == 0 {
		return 0
	}
	diff := forecastCents - actualCents
	if diff < 0 {
		diff = -diff
	}
	pct := 100 - float64(diff)/float64(actualCents)*100
	if pct < 0 {
		return 0
	}
	return pct
}

func (s *service) acquireLock(ctx context.Context, accountID uuid.UUID) (func(), bool, error) {
	key := fmt.Sprintf("fc:forecast:generate:%s", accountID)
	owner := uuid.NewString()

	ok, err := s.locks.SetNX(ctx, key, owner, s.cfg.LockTTL)
	if err != nil || !ok {
		return func() {}, false, err
	}

	release := func() {
		value, err := s.locks.Get(ctx, key)
		if err != nil || value != owner {
			return
		}
		if err := s.locks.Del(ctx, key); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "key", key), "release generation lock failed")
		}
	}
	return release, true, nil
}
