package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryConfig configures the Recovery middleware behaviour.
type RecoveryConfig struct {
	// Logger receives recovered panics. Defaults to slog.Default().
	Logger *slog.Logger

	// Stack adds the goroutine stack to the log record.
	Stack bool
}

// RecoveryMiddleware returns a middleware that recovers from panics in
// downstream handlers and answers 500 Internal Server Error.
func RecoveryMiddleware(cfg RecoveryConfig) MiddlewareFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err == nil {
					return
				}
				if err == http.ErrAbortHandler {
					panic(err)
				}

				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", RequestIDFromContext(r.Context()),
					"panic", err,
				}
				if cfg.Stack {
					attrs = append(attrs, "stack", string(debug.Stack()))
				}
				logger.Error("handler panic", attrs...)

				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
