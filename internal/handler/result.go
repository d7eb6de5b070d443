package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/casa/internal/errs"
)

// Result is what a handler produces. It is turned into the response
// envelope by Serve.
type Result struct {
	Message string
	Data    any
	Err     error
	list    bool
}

// OK is a successful result.
func OK(message string, data any) Result {
	return Result{Message: message, Data: data}
}

// Fail is a failed result for a single-entity route.
func Fail(err error) Result {
	return Result{Err: err}
}

// FailList is a failed result for a list route. Its data is [].
func FailList(err error) Result {
	return Result{Err: err, list: true}
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Func handles a request and returns its result. The writer is only needed
// to bound request bodies.
type Func func(w http.ResponseWriter, r *http.Request) Result

func adapt(fn func(r *http.Request) Result) Func {
	return func(_ http.ResponseWriter, r *http.Request) Result { return fn(r) }
}

// Serve adapts fn to an http.Handler writing the envelope.
func Serve(logger *slog.Logger, fn Func) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		write(logger, w, r, fn(w, r))
	})
}

// ErrorWriter returns the function middleware uses to report errors.
func ErrorWriter(logger *slog.Logger) func(http.ResponseWriter, *http.Request, error) {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		write(logger, w, r, Fail(err))
	}
}

func write(logger *slog.Logger, w http.ResponseWriter, r *http.Request, res Result) {
	if res.Err == nil {
		msg := res.Message
		if msg == "" {
			msg = "success"
		}
		data := res.Data
		if data == nil {
			data = struct{}{}
		}
		writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: msg, Data: data})
		return
	}

	code := errs.Code(res.Err)
	status := errs.Status(code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", res.Err)
	} else {
		logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "code", code, "error", res.Err)
	}

	var data any = struct{}{}
	if res.list {
		data = []any{}
	}
	writeJSON(w, status, envelope{Code: status, Message: errs.Message(res.Err), Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
