package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"anypay-go/internal/core/ports"
	"anypay-go/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestDefaultRateLimitRules(t *testing.T) {
	rules := DefaultRateLimitRules(60, time.Minute)
	assert.Equal(t, RateLimitRule{Limit: 60, Window: time.Minute}, rules[GroupRead])
	assert.Equal(t, RateLimitRule{Limit: 30, Window: time.Minute}, rules[GroupWrite])

	rules = DefaultRateLimitRules(1, time.Second)
	assert.Equal(t, int64(1), rules[GroupWrite].Limit)
}

func newLimitedRouter(store ports.RateLimitStore, subject string) *gin.Engine {
	r := gin.New()
	r.GET("/test", func(c *gin.Context) {
		if subject != "" {
			c.Set(CtxSubject, subject)
		}
		c.Next()
	}, RateLimiter(store, GroupRead, RateLimitRule{Limit: 2, Window: time.Minute}, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiter_Allowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRateLimitStore(ctrl)
	resetAt := time.Now().Add(time.Minute).Unix()

	store.EXPECT().Allow(gomock.Any(), "sub:billing-worker:read", int64(2), time.Minute).
		Return(&ports.RateLimitResult{Allowed: true, Limit: 2, Remaining: 1, ResetAt: resetAt}, nil)

	w := httptest.NewRecorder()
	newLimitedRouter(store, "billing-worker").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_Exceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRateLimitStore(ctrl)

	store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ports.RateLimitResult{Allowed: false, Limit: 2, Remaining: 0, ResetAt: time.Now().Add(30 * time.Second).Unix()}, nil)

	w := httptest.NewRecorder()
	newLimitedRouter(store, "billing-worker").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_001", decodeError(t, w).ErrorCode)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestRateLimiter_FallsBackToClientIP(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRateLimitStore(ctrl)

	store.EXPECT().Allow(gomock.Any(), "ip:192.0.2.1:read", gomock.Any(), gomock.Any()).
		Return(&ports.RateLimitResult{Allowed: true, Limit: 2, Remaining: 1}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	newLimitedRouter(store, "").ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_StoreErrorAllows(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockRateLimitStore(ctrl)

	store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis down"))

	w := httptest.NewRecorder()
	newLimitedRouter(store, "ops").ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
