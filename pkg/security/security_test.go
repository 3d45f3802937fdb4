package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"assessflow_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/api/assessments", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func doRequest(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSWhitelist(t *testing.T) {
	r := newTestRouter(CORS(config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}))

	w := doRequest(r, "GET", "/api/assessments", map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	// 不在白名单内的来源拿不到放行头
	w = doRequest(r, "GET", "/api/assessments", map[string]string{"Origin": "https://evil.example.com"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// 预检请求直接 204
	w = doRequest(r, "OPTIONS", "/api/assessments", map[string]string{"Origin": "https://app.example.com"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	r := newTestRouter(CORS(config.CORSConfig{AllowedOrigins: []string{"*"}}))

	w := doRequest(r, "GET", "/api/assessments", map[string]string{"Origin": "https://anywhere.example.com"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSecureHeaders(t *testing.T) {
	r := newTestRouter(Secure())

	w := doRequest(r, "GET", "/api/assessments", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	// 作答数据不进任何中间缓存
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = doRequest(r, "GET", "/metrics", nil)
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestRateLimiterBlocksAfterBudget(t *testing.T) {
	r := newTestRouter(RateLimiter(config.RateLimitConfig{MaxRequests: 3, WindowMinutes: 1}))

	for i := 0; i < 3; i++ {
		w := doRequest(r, "GET", "/api/assessments", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := doRequest(r, "GET", "/api/assessments", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// 健康检查与监控抓取不占限流额度
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(r, "GET", "/api/health", nil).Code)
		assert.Equal(t, http.StatusOK, doRequest(r, "GET", "/metrics", nil).Code)
	}
}
