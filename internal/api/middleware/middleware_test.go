package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/pens", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pens": []string{}})
	})

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{"simple GET with origin", http.MethodGet, "http://localhost:3000", http.StatusOK, true},
		{"preflight", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, true},
		{"no origin header", http.MethodGet, "", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/pens", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Contains(t, cfg.AllowOrigins, "*")
	assert.Contains(t, cfg.AllowMethods, "PUT")
	assert.Contains(t, cfg.AllowMethods, "DELETE")
	assert.Contains(t, cfg.ExposeHeaders, "ETag")
	assert.False(t, cfg.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func newLimitedRouter(v *visitors) *gin.Engine {
	router := setupTestRouter()
	router.Use(rateLimit(v))
	router.GET("/pens", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func get(router http.Handler, remote string) int {
	req := httptest.NewRequest(http.MethodGet, "/pens", nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1000, 0)
	v := newVisitors(RateLimitConfig{RequestsPerSecond: 2, Burst: 2})
	v.now = func() time.Time { return now }
	router := newLimitedRouter(v)

	assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:1234"))
	assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, get(router, "192.168.1.1:1234"))

	// a different client has its own bucket
	assert.Equal(t, http.StatusOK, get(router, "192.168.1.2:1234"))

	// tokens refill at the configured rate
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, get(router, "192.168.1.1:1234"))
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	now := time.Unix(1000, 0)
	v := newVisitors(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	v.now = func() time.Time { return now }
	router := newLimitedRouter(v)

	get(router, "10.0.0.1:1")
	get(router, "10.0.0.2:1")
	assert.Equal(t, 2, v.len())

	now = now.Add(2 * time.Minute)
	get(router, "10.0.0.3:1")
	assert.Equal(t, 1, v.len())
}

func TestRateLimitResponse(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))
	router.GET("/pens", func(c *gin.Context) { c.Status(http.StatusOK) })

	get(router, "10.0.0.9:1")
	req := httptest.NewRequest(http.MethodGet, "/pens", nil)
	req.RemoteAddr = "10.0.0.9:1"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded","retryable":true}`, w.Body.String())
}

func TestGzip(t *testing.T) {
	body := strings.Repeat("console.log('hello');\n", 200)
	handler, err := Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/pens/p1/preview", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Less(t, w.Body.Len(), len(body))

	req = httptest.NewRequest(http.MethodGet, "/editor/stream", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, body, w.Body.String())
}

func BenchmarkRateLimit(b *testing.B) {
	router := setupTestRouter()
	router.Use(RateLimit(DefaultRateLimitConfig()))
	router.GET("/pens", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/pens", nil)
	req.RemoteAddr = "192.168.1.1:1234"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}
