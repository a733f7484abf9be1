package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/coursehub/wishlist/pkg/httputil"
)

// Recovery turns a panic into a 500 envelope. If the handler already
// started the response, the connection is left as is and only the panic is
// logged.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)

			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("correlation_id", correlationID(r.Context())),
					slog.Bool("response_started", rec.wroteHeader),
				)
				if rec.wroteHeader {
					return
				}
				httputil.WriteJSON(rec, http.StatusInternalServerError, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "an internal error occurred"},
				})
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
