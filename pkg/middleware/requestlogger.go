package middleware

import (
	"log/slog"
	"net/http"

	"github.com/coursehub/wishlist/pkg/logger"
)

// UserIDHeader is set by the gateway after authenticating the caller.
const UserIDHeader = "X-User-ID"

// RequestLogger stores a request-scoped logger in the context, enriched with
// correlation_id, user_id, trace_id, span_id and the requested locale. Mount
// it after RequestLogging and Tracing so those values are already present.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := r.Header.Get(UserIDHeader); userID != "" {
				ctx = logger.WithUserID(ctx, userID)
			}

			l := logger.WithContext(ctx, base)
			if locale := r.URL.Query().Get("locale"); locale != "" {
				l = l.With(slog.String("locale", locale))
			}

			next.ServeHTTP(w, r.WithContext(logger.NewContext(ctx, l)))
		})
	}
}
