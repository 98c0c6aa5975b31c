package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/sudanchapagain/event-booking-system/internal/errors"
	"github.com/sudanchapagain/event-booking-system/internal/models"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type userMap map[string]*models.User

func (m userMap) GetByID(_ context.Context, id string) (*models.User, error) {
	if id == "boom" {
		return nil, errors.New("db down")
	}
	if u, ok := m[id]; ok {
		return u, nil
	}
	return nil, &apperrors.NotFoundError{Resource: "user", Key: id}
}

func TestAuthenticate(t *testing.T) {
	users := userMap{"u1": {ID: "u1", Username: "sita"}}

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"known user", "u1", "u1"},
		{"no header", "", ""},
		{"unknown user", "ghost", ""},
		{"lookup failure", "boom", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.User
			h := Authenticate(users, quietLog())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = CurrentUser(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestTracingSetsRequestID(t *testing.T) {
	var seen string
	h := TracingMiddleware(quietLog())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEqual(t, "unknown", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestTracingKeepsCallerRequestID(t *testing.T) {
	var seen string
	h := TracingMiddleware(quietLog())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "edge-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "edge-42", seen)
	assert.Equal(t, "edge-42", rec.Header().Get("X-Request-ID"))
}

func TestSpanNameUsesRouteTemplate(t *testing.T) {
	var name string
	r := mux.NewRouter()
	r.HandleFunc("/api/events/{slug}", func(w http.ResponseWriter, r *http.Request) {
		name = spanName(r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/events/jazz-night", nil))
	assert.Equal(t, "GET /api/events/{slug}", name)

	unrouted := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, "GET /nowhere", spanName(unrouted))
}

func TestErrorRecovery(t *testing.T) {
	h := ErrorRecoveryMiddleware(quietLog())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/events", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), UserHeader)
}

func TestGetRequestIDDefault(t *testing.T) {
	assert.Equal(t, "unknown", GetRequestID(context.Background()))
}
