package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/internal/events"
	"github.com/flowcasthq/flowcast-backend/pkg/config"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
)

// Service produces cash position projections on demand. It is read-only and
// safe for any number of concurrent callers; every run reads a fresh
// snapshot and computes in memory.
type Service interface {
	Project(ctx context.Context, input ProjectInput) (*Projection, error)
}

// ProjectInput configures one projection run. CurrentBalanceCents is the
// real bank total supplied by the caller; the engine never computes it.
type ProjectInput struct {
	AccountID           uuid.UUID
	CurrentBalanceCents int64
	ReserveCents        int64
	AsOf                time.Time
	HorizonDays         int
}

// Projection is the full read-path result.
type Projection struct {
	AsOf          time.Time              `json:"as_of"`
	HorizonDays   int                    `json:"horizon_days"`
	Events        []events.CashFlowEvent `json:"events"`
	DailyBalances []DailyBalancePoint    `json:"daily_balances"`
	Opportunities []BuyingOpportunity    `json:"buying_opportunities"`
}

type service struct {
	sources    events.SourceRepository
	normalizer *events.Normalizer
	cfg        config.ProjectionConfig
}

// NewService wires a projection service.
func NewService(sources events.SourceRepository, normalizer *events.Normalizer, cfg config.ProjectionConfig) (Service, error) {
	if sources == nil {
		return nil, fmt.Errorf("source repository required")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("normalizer required")
	}
	return &service{sources: sources, normalizer: normalizer, cfg: cfg}, nil
}

func (s *service) Project(ctx context.Context, input ProjectInput) (*Projection, error) {
	if input.AccountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id is required")
	}
	if input.AsOf.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "as-of time is required")
	}
	if input.ReserveCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reserve must not be negative")
	}

	horizon := input.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.DefaultHorizonDays
	}
	if s.cfg.MaxHorizonDays > 0 && horizon > s.cfg.MaxHorizonDays {
		horizon = s.cfg.MaxHorizonDays
	}

	src, err := s.sources.LoadSources(ctx, input.AccountID, input.AsOf)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading projection sources")
	}

	stream := s.normalizer.Normalize(ctx, src, input.AsOf, horizon)
	balances := ProjectDailyBalances(stream, input.CurrentBalanceCents, input.AsOf, horizon)
	opportunities := ComputeBuyingOpportunities(balances, input.ReserveCents)

	return &Projection{
		AsOf:          events.DateOnly(input.AsOf),
		HorizonDays:   horizon,
		Events:        stream,
		DailyBalances: balances,
		Opportunities: opportunities,
	}, nil
}
