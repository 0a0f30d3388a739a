package appMiddleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/teachmeskills/todo-api/internal/api"
)

// ErrorTranslator converts panics escaping downstream handlers into a
// structured JSON 500 response. The stack trace goes to the log, never to
// the client; in development mode the panic message is included in the body
// to speed up debugging.
func ErrorTranslator(logger *slog.Logger, development bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					// The connection is gone; nothing sensible to write.
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "Unhandled panic in request handler",
					slog.Any("panic", rec),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("stack", string(debug.Stack())),
				)

				message := "Internal server error"
				if development {
					if err, ok := rec.(error); ok {
						message = err.Error()
					}
				}
				api.ErrorResponse(w, r, http.StatusInternalServerError, message)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
