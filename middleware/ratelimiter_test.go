package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter_PerKeyBuckets(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0), 2)

	assert.True(t, rl.Allow("1"))
	assert.True(t, rl.Allow("1"))
	assert.False(t, rl.Allow("1"))
	assert.True(t, rl.Allow("2"))
}

func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(rate.Limit(0), 1)

	r := gin.New()
	r.POST("/generate", rl.Middleware(func(c *gin.Context) string { return c.GetHeader("X-Company") }), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	do := func(company string) int {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("X-Company", company)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, do("7"))
	assert.Equal(t, http.StatusTooManyRequests, do("7"))
	assert.Equal(t, http.StatusCreated, do("8"))
	// sem chave não limita
	assert.Equal(t, http.StatusCreated, do(""))
	assert.Equal(t, http.StatusCreated, do(""))
}

func TestPerMinute(t *testing.T) {
	assert.InDelta(t, 0.5, float64(PerMinute(30)), 1e-9)
}

func TestRateLimiter_EvictsIdleKeys(t *testing.T) {
	clock := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate.Limit(0), 1)
	rl.now = func() time.Time { return clock }

	assert.True(t, rl.Allow("1"))
	assert.True(t, rl.Allow("2"))
	assert.Equal(t, 2, rl.Len())

	clock = clock.Add(IdleLimiterTTL / 2)
	assert.False(t, rl.Allow("2"))

	// "1" ficou parado além do TTL, "2" não
	clock = clock.Add(IdleLimiterTTL/2 + time.Second)
	assert.True(t, rl.Allow("3"))
	assert.Equal(t, 2, rl.Len())
	assert.False(t, rl.Allow("2"))
	assert.True(t, rl.Allow("1"))
}
