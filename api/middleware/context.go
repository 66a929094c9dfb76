package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const ctxAccountID contextKey = "account_id"

// AccountIDFromContext returns the account scope set by the Account
// middleware, or uuid.Nil when the request carried none.
func AccountIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxAccountID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithAccountID injects the account identifier into the context.
func WithAccountID(ctx context.Context, accountID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccountID, accountID)
}
