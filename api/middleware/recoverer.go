package middleware

import (
	"fmt"
	"net/http"

	"github.com/angelmondragon/shareit-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shareit-backend/pkg/errors"
	"github.com/angelmondragon/shareit-backend/pkg/logger"
)

// Recoverer turns a panicking booking handler into a 500 envelope. The raw
// sharer header is logged because the panic may precede SharerUser.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err := fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, rec)
				ctx := r.Context()
				if logg != nil {
					fields := map[string]any{
						"panic":  fmt.Sprint(rec),
						"method": r.Method,
						"path":   r.URL.Path,
					}
					if sharer := r.Header.Get(SharerUserHeader); sharer != "" {
						fields["sharer_user_id"] = sharer
					}
					ctx = logg.WithFields(ctx, fields)
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "booking request failed"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
