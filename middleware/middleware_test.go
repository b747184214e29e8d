package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var accounts = map[string]string{"alice": "secret"}

func newRouter(logger *zap.SugaredLogger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware(logger), RecoveryMiddleware(logger))

	authorized := r.Group("/", BasicAuth(accounts))
	authorized.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, Owner(c))
	})
	authorized.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestBasicAuth(t *testing.T) {
	r := newRouter(zap.NewNop().Sugar())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), Realm)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.SetBasicAuth("alice", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestAuthenticated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := Authenticated(req, accounts)
	assert.False(t, ok)

	req.SetBasicAuth("alice", "wrong")
	_, ok = Authenticated(req, accounts)
	assert.False(t, ok)

	req.SetBasicAuth("alice", "secret")
	user, ok := Authenticated(req, accounts)
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
}

func TestLoggingAndRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newRouter(zap.New(core).Sugar())

	req := httptest.NewRequest(http.MethodGet, "/panic?x=1", nil)
	req.SetBasicAuth("alice", "secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "boom", panics[0].ContextMap()["panic"])

	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 1)
	fields := requests[0].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, requests[0].Level)
	assert.Equal(t, "/panic", fields["path"])
	assert.Equal(t, "x=1", fields["query"])
	assert.Equal(t, "alice", fields["user"])
}
