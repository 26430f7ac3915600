package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"book-recommender/internal/app"
)

// Validator is shared by handlers that decode JSON bodies.
var Validator = validator.New(validator.WithRequiredStructEnabled())

// NewRouter creates a chi router with standard middleware (RequestID, RealIP, Timeout, Recoverer, Logger).
func NewRouter(log *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(Recoverer(log))
	r.Use(RequestLogger(log))

	return r
}

// WriteJSON writes a JSON response with proper headers.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(body)
}

// HealthHandler reports ok once the vector index holds documents.
func HealthHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := deps.Store.Count(r.Context())
		if err != nil || n == 0 {
			Fail(deps.Log, w, "index not ready", err, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Log.Warn("healthz write failed", "err", err)
		}
	}
}

// RequestLogger logs one line per request. Server errors log at error, client
// errors at warn, and health probes at debug.
func RequestLogger(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			switch status := ww.Status(); {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			case r.URL.Path == "/healthz":
				level = slog.LevelDebug
			}
			log.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Recoverer logs panics via slog while preserving chi's Recoverer behavior.
func Recoverer(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic recovered", "panic", rec, "path", r.URL.Path, "method", r.Method, "request_id", middleware.GetReqID(r.Context()))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Fail writes an error response with consistent logging.
func Fail(log *slog.Logger, w http.ResponseWriter, message string, err error, status int) {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		log.Error(message, "err", err)
	} else {
		log.Warn(message, "err", err)
	}
	http.Error(w, message, status)
}

// ValidationError writes a 400 listing the fields that failed validation.
func ValidationError(log *slog.Logger, w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Fail(log, w, "invalid request", err, http.StatusBadRequest)
		return
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	log.Warn("validation failed", "fields", msgs)
	WriteJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": msgs,
	})
}
