package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"miny/internal/logger"
	"miny/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	gin.SetMode(gin.TestMode)

	code := m.Run()
	os.Exit(code)
}

func okRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func get(r http.Handler, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMetricsMiddleware(t *testing.T) {
	router := okRouter(MetricsMiddleware())

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/test", "200"))
	w := get(router, "/test")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/test", "200")))
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	router := okRouter(MetricsMiddleware())

	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	get(router, "/nope/123")

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRequestLoggingMiddleware(t *testing.T) {
	router := okRouter(RequestIDMiddleware(), RequestLoggingMiddleware())

	w := get(router, "/test?name=Ben")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	router := okRouter(RequestIDMiddleware())

	t.Run("generates id", func(t *testing.T) {
		w := get(router, "/test")
		_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})

	t.Run("keeps incoming id", func(t *testing.T) {
		w := get(router, "/test", "X-Request-ID", "abc-123")
		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	router := okRouter(RateLimitMiddleware(1, 3))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, get(router, "/test").Code)
	}

	w := get(router, "/test")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limited")
}

func TestRateLimitMiddleware_PerClient(t *testing.T) {
	router := okRouter(RateLimitMiddleware(1, 1))

	assert.Equal(t, http.StatusOK, get(router, "/test").Code)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")
	require.Equal(t, 2, rl.size())

	rl.evict(time.Now().Add(2 * time.Minute))
	assert.Zero(t, rl.size())
}

func TestCorsMiddleware(t *testing.T) {
	w := get(okRouter(corsMiddleware()), "/test")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCorsMiddleware_OPTIONS(t *testing.T) {
	router := okRouter(corsMiddleware())

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendTest(ctx context.Context, to string) error {
	return m.Called(ctx, to).Error(0)
}

func TestTestEmail(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		sendErr  error
		wantCode int
	}{
		{"queued", "?email=admin@example.com", nil, http.StatusOK},
		{"missing", "", nil, http.StatusBadRequest},
		{"malformed", "?email=not-an-email", nil, http.StatusBadRequest},
		{"queue down", "?email=admin@example.com", errors.New("redis down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := new(MockMailer)
			mailer.On("SendTest", mock.Anything, "admin@example.com").Return(tt.sendErr)

			router := gin.New()
			router.GET("/admin/test-email", TestEmail(mailer))

			w := get(router, "/admin/test-email"+tt.query)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	router := gin.New()
	router.GET("/health", Health)

	w := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
