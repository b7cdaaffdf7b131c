package handler

import (
	"anypay-go/internal/adapter/http/dto"
	"anypay-go/internal/core/domain"
	"anypay-go/internal/core/ports"
	"anypay-go/pkg/apperror"
	"anypay-go/pkg/response"

	"github.com/gin-gonic/gin"
)

// AuditHandler serves the audit trail of forwarded write calls.
type AuditHandler struct {
	auditSvc ports.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditSvc ports.AuditService) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// List handles GET /api/v1/audit.
func (h *AuditHandler) List(c *gin.Context) {
	var q dto.AuditQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	filter := domain.AuditFilter{
		Subject: q.Subject,
		Action:  domain.AuditAction(q.Action),
		Limit:   q.Limit,
	}.Normalize()

	entries, err := h.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewListResponse(entries, 0))
}
