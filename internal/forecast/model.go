package forecast

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flowcasthq/flowcast-backend/pkg/db/models"
	"github.com/flowcasthq/flowcast-backend/pkg/enums"
)

// Draft is one model-produced forecast row before persistence. ModelInputs
// records the parameters that produced the amount so every stored forecast
// stays auditable after the fact.
type Draft struct {
	PayoutDate  time.Time
	AmountCents int64
	ModelInputs json.RawMessage
}

// History is the input snapshot a model computes from. ConfirmedPayouts is
// ascending by payout date; Transactions covers the trailing settlement
// window the daily model needs.
type History struct {
	AsOf              time.Time
	ConfirmedPayouts  []models.Payout
	OpenPayouts       []models.Payout
	Transactions      []models.AmazonTransaction
	RiskTier          enums.RiskTier
	RiskAdjustmentPct float64
}

// Model is the strategy interface both payout models implement. Models are
// pure: they read the history snapshot and return drafts, and persisting the
// result is the service's job.
type Model interface {
	Method() enums.ForecastMethod
	Generate(ctx context.Context, history History) ([]Draft, error)
}
