package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citybites/site/internal/observability"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

type stubChecker struct {
	admins map[string]bool
	err    error
}

func (s stubChecker) IsAdmin(_ context.Context, id string) (bool, error) {
	return s.admins[id], s.err
}

func protected(checker AdminChecker) (http.Handler, *bool) {
	reached := false
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})
	return RequireAuth(testSecret)(RequireAdmin(checker, zap.NewNop())(h)), &reached
}

func TestRequireAuthAndAdmin(t *testing.T) {
	checker := stubChecker{admins: map[string]bool{"admin-1": true}}
	valid := signToken(t, testSecret, "admin-1", time.Now().Add(time.Hour))

	cases := []struct {
		name    string
		header  string
		checker AdminChecker
		status  int
	}{
		{"missing header", "", checker, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", checker, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", checker, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", "admin-1", time.Now().Add(time.Hour)), checker, http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, "admin-1", time.Now().Add(-time.Minute)), checker, http.StatusUnauthorized},
		{"not an admin", "Bearer " + signToken(t, testSecret, "someone", time.Now().Add(time.Hour)), checker, http.StatusForbidden},
		{"checker error", "Bearer " + valid, stubChecker{err: errors.New("db down")}, http.StatusInternalServerError},
		{"admin", "Bearer " + valid, checker, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, reached := protected(tc.checker)
			req := httptest.NewRequest(http.MethodPost, "/admin/media/actions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusNoContent, *reached)
		})
	}
}

func TestRequireAuthRejectsNoneAlgorithm(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "admin-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	h, reached := protected(stubChecker{admins: map[string]bool{"admin-1": true}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+unsigned)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestRequireAdminWithoutAuth(t *testing.T) {
	h := RequireAdmin(stubChecker{}, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoggerRecordsMetrics(t *testing.T) {
	metrics, err := observability.NewMetrics()
	require.NoError(t, err)

	h := Logger(zap.NewNop(), metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("GET", "/health", "418")))
}
