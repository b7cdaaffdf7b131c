package handler

import (
	"anypay-go/internal/adapter/http/middleware"
	"anypay-go/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const defaultMaxBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	PaymentSvc     ports.PaymentService
	TokenSvc       ports.TokenService
	AuditSvc       ports.AuditService   // nil = audit logging disabled
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	MaxBodyBytes   int64
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	maxBody := deps.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxBody))

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		rule, ok := deps.RateLimitRules[group]
		if deps.RateLimitStore == nil || !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}
	read, write := rl(middleware.GroupRead), rl(middleware.GroupWrite)

	v1 := r.Group("/api/v1", middleware.JWTAuth(deps.TokenSvc, deps.Logger))

	payments := NewPaymentHandler(deps.PaymentSvc)
	{
		v1.GET("/balance", read, payments.GetBalance)
		v1.GET("/rates", read, payments.GetRates)
		v1.GET("/commissions", read, payments.GetCommissions)
		v1.GET("/service-ips", read, payments.GetServiceIPs)

		v1.GET("/payments", read, payments.ListPayments)
		v1.POST("/payments", write, payments.CreatePayment)
		v1.GET("/payouts", read, payments.ListPayouts)
		v1.POST("/payouts", write, payments.CreatePayout)
		v1.POST("/checkout", write, payments.Checkout)
	}

	if deps.AuditSvc != nil {
		audit := NewAuditHandler(deps.AuditSvc)
		v1.GET("/audit", read, audit.List)
	}

	return r
}
