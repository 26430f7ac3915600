package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"book-recommender/internal/app"
	"book-recommender/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*store.MockStore)
		wantStatus int
	}{
		{
			name:       "index populated",
			setup:      func(s *store.MockStore) { s.On("Count", mock.Anything).Return(42, nil).Once() },
			wantStatus: http.StatusOK,
		},
		{
			name:       "index empty",
			setup:      func(s *store.MockStore) { s.On("Count", mock.Anything).Return(0, nil).Once() },
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "store error",
			setup:      func(s *store.MockStore) { s.On("Count", mock.Anything).Return(0, errors.New("db down")).Once() },
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(store.MockStore)
			tt.setup(st)
			handler := HealthHandler(app.Deps{Store: st, Log: discardLogger()})

			w := httptest.NewRecorder()
			handler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			st.AssertExpectations(t)
		})
	}
}

func TestRecovererReturns500(t *testing.T) {
	r := NewRouter(discardLogger())
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestValidationErrorListsFields(t *testing.T) {
	type payload struct {
		Query string `validate:"required"`
	}
	err := Validator.Struct(payload{})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discardLogger(), w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []any{"query failed required"}, body["fields"])
}

func TestFailDefaultsTo500(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(discardLogger(), w, "boom", nil, 0)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "boom")
}

func TestRequestLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		path      string
		status    int
		wantLevel string
	}{
		{"/api/options", http.StatusOK, "INFO"},
		{"/api/recommend", http.StatusBadRequest, "WARN"},
		{"/api/recommend", http.StatusInternalServerError, "ERROR"},
		{"/healthz", http.StatusOK, "DEBUG"},
	}

	for _, tt := range tests {
		t.Run(tt.wantLevel, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.path, entry["path"])
			assert.EqualValues(t, tt.status, entry["status"])
		})
	}
}
