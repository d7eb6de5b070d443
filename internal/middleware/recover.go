package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dukerupert/casa/internal/errs"
)

// Recover turns a panic in a handler into a 500 envelope.
func Recover(logger *slog.Logger, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic in handler",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(v),
					"stack", string(debug.Stack()),
				)
				fail(w, r, errs.Wrap(fmt.Errorf("panic: %v", v), errs.EInternal, "http"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
