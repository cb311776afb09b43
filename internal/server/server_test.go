package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"event-service/internal/auth"
	"event-service/internal/domain"
	"event-service/internal/metrics"
	"event-service/internal/repository"
	"event-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

const createBody = `{
	"title": "Meetup",
	"date": "2026-11-03",
	"time": "18:00",
	"location": "Hall A",
	"description": "Monthly meetup",
	"category": "tech"
}`

type testEnv struct {
	e       *echo.Echo
	authn   *auth.Authenticator
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authn, err := auth.NewAuthenticator([]byte(testSecret))
	require.NoError(t, err)

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	repo := repository.NewMemoryEventRepository()
	svc := service.NewEventService(repo, auth.NewAuthorizer(m), nil)

	return &testEnv{
		e:       NewRouter(NewServer(svc, repo), authn, m),
		authn:   authn,
		metrics: m,
	}
}

func (env *testEnv) token(t *testing.T, subject string) string {
	t.Helper()
	token, err := env.authn.Issue(subject, time.Hour)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(method, path, body, authorization string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodeEvent(t *testing.T, rec *httptest.ResponseRecorder) domain.Event {
	t.Helper()
	var event domain.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	return event
}

func TestEventAPI_OwnershipScenario(t *testing.T) {
	env := newTestEnv(t)
	tokenA := "Bearer " + env.token(t, "user-a")
	tokenB := "Bearer " + env.token(t, "user-b")

	rec := env.do(http.MethodPost, "/api/events", createBody, tokenA)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeEvent(t, rec)
	assert.Equal(t, "user-a", created.CreatedBy)
	assert.NotEmpty(t, created.ID)

	rec = env.do(http.MethodPut, "/api/events/"+created.ID, `{"title":"New"}`, tokenA)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeEvent(t, rec)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, created.Location, updated.Location)
	assert.Equal(t, created.Category, updated.Category)
	assert.Equal(t, "user-a", updated.CreatedBy)

	rec = env.do(http.MethodDelete, "/api/events/"+created.ID, "", tokenB)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())

	rec = env.do(http.MethodDelete, "/api/events/zzz", "", tokenB)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Event not found"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/events/"+created.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New", decodeEvent(t, rec).Title)

	rec = env.do(http.MethodDelete, "/api/events/"+created.ID, "", tokenA)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Event removed"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/events/"+created.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.AuthzDecisionsTotal.WithLabelValues("delete", "deny_forbidden")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.AuthzDecisionsTotal.WithLabelValues("delete", "deny_not_found")))
}

func TestEventAPI_Authentication(t *testing.T) {
	env := newTestEnv(t)

	t.Run("missing token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/events", createBody, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"No token"}`, rec.Body.String())
	})

	t.Run("bearer prefix without token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/events", createBody, "Bearer ")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("scheme only without trailing space", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/events", createBody, "Bearer")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"No token"}`, rec.Body.String())

		rec = env.do(http.MethodDelete, "/api/events/zzz", "", "bearer")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/events", createBody, "Bearer not.a.jwt")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other, err := auth.NewAuthenticator([]byte("other-secret"))
		require.NoError(t, err)
		token, err := other.Issue("user-a", time.Hour)
		require.NoError(t, err)

		rec := env.do(http.MethodPost, "/api/events", createBody, "Bearer "+token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"Invalid token"}`, rec.Body.String())
	})

	t.Run("expired token", func(t *testing.T) {
		past, err := auth.NewAuthenticator([]byte(testSecret), auth.WithClock(func() time.Time {
			return time.Now().Add(-2 * time.Hour)
		}))
		require.NoError(t, err)
		token, err := past.Issue("user-a", time.Hour)
		require.NoError(t, err)

		rec := env.do(http.MethodPost, "/api/events", createBody, "Bearer "+token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("raw token without bearer prefix", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/api/events", createBody, env.token(t, "user-a"))
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("unauthenticated mutation of a missing event is 401", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/api/events/zzz", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = env.do(http.MethodPut, "/api/events/zzz", `{"title":"x"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("reads are public", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/api/events", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestEventAPI_CreateIgnoresPayloadOwner(t *testing.T) {
	env := newTestEnv(t)

	body := strings.Replace(createBody, `"category": "tech"`, `"category": "tech", "createdBy": "user-b"`, 1)
	rec := env.do(http.MethodPost, "/api/events", body, "Bearer "+env.token(t, "user-a"))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-a", decodeEvent(t, rec).CreatedBy)
}

func TestEventAPI_UpdateCannotReassignOwner(t *testing.T) {
	env := newTestEnv(t)
	tokenA := "Bearer " + env.token(t, "user-a")

	rec := env.do(http.MethodPost, "/api/events", createBody, tokenA)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeEvent(t, rec)

	rec = env.do(http.MethodPut, "/api/events/"+created.ID, `{"createdBy":"user-b","id":"other"}`, tokenA)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeEvent(t, rec)
	assert.Equal(t, "user-a", updated.CreatedBy)
	assert.Equal(t, created.ID, updated.ID)

	rec = env.do(http.MethodDelete, "/api/events/"+created.ID, "", "Bearer "+env.token(t, "user-b"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEventAPI_Validation(t *testing.T) {
	env := newTestEnv(t)
	tokenA := "Bearer " + env.token(t, "user-a")

	tests := []struct {
		name string
		body string
	}{
		{"missing title", strings.Replace(createBody, `"title": "Meetup",`, "", 1)},
		{"blank location", strings.Replace(createBody, `"Hall A"`, `"  "`, 1)},
		{"bad date", strings.Replace(createBody, `"2026-11-03"`, `"next week"`, 1)},
		{"malformed json", `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/events", tt.body, tokenA)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"Please fill in all fields"}`, rec.Body.String())
		})
	}

	rec := env.do(http.MethodGet, "/api/events", "", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestEventAPI_UpdateMissingEvent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/api/events/zzz", `{"title":"x"}`, "Bearer "+env.token(t, "user-a"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Event not found"}`, rec.Body.String())
}

func TestEventAPI_ListNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	tokenA := "Bearer " + env.token(t, "user-a")

	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/events", createBody, tokenA).Code)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/events", createBody, tokenA).Code)

	rec := env.do(http.MethodGet, "/api/events", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var events []domain.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	assert.Len(t, events, 2)
}

type failingStore struct{}

func (failingStore) Ping(context.Context) error { return errors.New("connection refused") }

type brokenService struct{}

func (brokenService) ListEvents(context.Context) ([]domain.Event, error) {
	return nil, errors.Join(domain.ErrStoreUnavailable, errors.New("pq: relation \"events\" does not exist"))
}

func (brokenService) GetEvent(context.Context, string) (*domain.Event, error) {
	return nil, domain.ErrStoreUnavailable
}

func (brokenService) CreateEvent(context.Context, *domain.Identity, domain.CreateEventRequest) (*domain.Event, error) {
	return nil, domain.ErrStoreUnavailable
}

func (brokenService) UpdateEvent(context.Context, *domain.Identity, string, domain.UpdateEventRequest) (*domain.Event, error) {
	return nil, domain.ErrStoreUnavailable
}

func (brokenService) DeleteEvent(context.Context, *domain.Identity, string) error {
	return domain.ErrStoreUnavailable
}

func TestEventAPI_StoreFailure(t *testing.T) {
	authn, err := auth.NewAuthenticator([]byte(testSecret))
	require.NoError(t, err)
	e := NewRouter(NewServer(brokenService{}, failingStore{}), authn, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pq:")

	token, err := authn.Issue("user-a", time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodDelete, "/api/events/evt-1", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestPrometheusMiddleware(t *testing.T) {
	env := newTestEnv(t)

	env.do(http.MethodGet, "/api/events", "", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/events", "200")))
}
