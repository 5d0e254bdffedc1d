package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/YahSeh/Nexus-terminal/internal/auth"
	"github.com/YahSeh/Nexus-terminal/internal/config"
	"github.com/YahSeh/Nexus-terminal/internal/database"
	"github.com/YahSeh/Nexus-terminal/internal/session"
	"github.com/YahSeh/Nexus-terminal/internal/testutil"
)

func newTestAppWithTimeout(t *testing.T, timeout time.Duration) *NexusApp {
	logger := testutil.TestLogger(t)
	db := &database.MockNexusRepository{}
	cfg := &config.Config{
		ServerAddr: "localhost:0",
		SigningKey: []byte("0123456789abcdef0123456789abcdef"),
	}

	return NewNexusApp(http.NewServeMux(), logger, nil, db,
		auth.NewCredentialVerifier(logger, db),
		session.NewGuard(timeout),
		cfg,
	)
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestAppWithTimeout(t, session.DefaultTimeout)

	handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		assert.True(t, ok, "expected session in request context")
		assert.Equal(t, "alice", sess.Username)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes", func(t *testing.T) {
		token, err := app.createJwtForSession(Session{Username: "alice"}, time.Hour)
		assert.NoError(t, err)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(createJwtCookie(token, time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	})

	t.Run("missing cookie rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		req.AddCookie(createJwtCookie("garbage", time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthMiddleware_InactivityExpiry(t *testing.T) {
	app := newTestAppWithTimeout(t, 10*time.Millisecond)

	handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	token, err := app.createJwtForSession(Session{Username: "alice"}, time.Hour)
	assert.NoError(t, err)

	// first request stamps activity
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(createJwtCookie(token, time.Hour))
	handler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "expected fresh session to pass")

	time.Sleep(25 * time.Millisecond)

	// the token is still cryptographically valid but the session idled out
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(createJwtCookie(token, time.Hour))
	handler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code, "expected idle session to be rejected")

	cookie := findCookie(rr, tokenCookieKey)
	assert.NotNil(t, cookie, "expected the cookie to be cleared")
	assert.Empty(t, cookie.Value)
}

func TestErrorHandler_RecoversPanics(t *testing.T) {
	app := newTestAppWithTimeout(t, session.DefaultTimeout)

	handler := app.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected panic to become a 500")
}
