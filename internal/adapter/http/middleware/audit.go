package middleware

import (
	"encoding/json"
	"net/http"

	"anypay-go/internal/core/domain"
	"anypay-go/internal/core/ports"
	"anypay-go/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys handlers use to enrich the audit entry.
const (
	CtxAuditResourceID = "audit_resource_id"
	CtxAuditDetails    = "audit_details"
)

// AuditLog creates an audit middleware that records every write call
// forwarded to AnyPay, successful or not.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodPost {
			return
		}
		action, resourceType := mapPathToAction(c.FullPath())
		if action == "" {
			return
		}

		details := map[string]any{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}
		if extra, ok := c.Get(CtxAuditDetails); ok {
			details["request"] = extra
		}
		if err := c.Errors.Last(); err != nil {
			details["error"] = err.Error()
		}
		detailsJSON, _ := json.Marshal(details)

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			Subject:      Subject(c),
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.GetString(CtxAuditResourceID),
			Details:      string(detailsJSON),
			IPAddress:    c.ClientIP(),
			RequestID:    c.GetString(response.RequestIDKey),
			StatusCode:   c.Writer.Status(),
		})
	}
}

func mapPathToAction(route string) (domain.AuditAction, string) {
	switch route {
	case "/api/v1/payments":
		return domain.AuditActionCreatePayment, "bill"
	case "/api/v1/payouts":
		return domain.AuditActionCreatePayout, "payout"
	case "/api/v1/checkout":
		return domain.AuditActionCheckout, "bill_url"
	}
	return "", ""
}
