package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/flowcasthq/flowcast-backend/api/responses"
	pkgerrors "github.com/flowcasthq/flowcast-backend/pkg/errors"
	"github.com/flowcasthq/flowcast-backend/pkg/logger"
)

const accountIDHeader = "X-Account-Id"

// Account requires a well-formed account identifier header on every request
// and scopes the context to it.
func Account(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw := r.Header.Get(accountIDHeader)
			if raw == "" {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "account id header is required"))
				return
			}
			accountID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "account id header must be a uuid"))
				return
			}

			ctx = WithAccountID(ctx, accountID)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, accountID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
