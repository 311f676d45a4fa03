package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shareit-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
)

// SharerUserHeader carries the acting user's id on every booking request.
const SharerUserHeader = "X-Sharer-User-Id"

// SharerUser resolves the caller from SharerUserHeader. Identity is asserted by the
// gateway in front of the API, so the header is trusted once it parses.
func SharerUser(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(SharerUserHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, SharerUserHeader+" header required"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, SharerUserHeader+" must be a uuid"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
