package handler

import (
	"strconv"

	"anypay-go/internal/adapter/http/dto"
	"anypay-go/internal/adapter/http/middleware"
	"anypay-go/internal/core/ports"
	"anypay-go/pkg/apperror"
	"anypay-go/pkg/response"

	"github.com/gin-gonic/gin"
)

// PaymentHandler exposes the AnyPay operations over HTTP.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// GetBalance handles GET /api/v1/balance.
func (h *PaymentHandler) GetBalance(c *gin.Context) {
	balance, err := h.paymentSvc.Balance(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.BalanceResponse{Balance: balance})
}

// GetRates handles GET /api/v1/rates.
func (h *PaymentHandler) GetRates(c *gin.Context) {
	rates, err := h.paymentSvc.Rates(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rates)
}

// GetCommissions handles GET /api/v1/commissions.
func (h *PaymentHandler) GetCommissions(c *gin.Context) {
	var q dto.CommissionsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	commissions, err := h.paymentSvc.Commissions(c.Request.Context(), q.ProjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, commissions)
}

// CreatePayment handles POST /api/v1/payments.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditDetails, req.AuditDetails())

	bill, err := h.paymentSvc.CreatePayment(c.Request.Context(), req.ToAnyPay())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, strconv.FormatInt(bill.ID, 10))
	response.Created(c, bill)
}

// ListPayments handles GET /api/v1/payments.
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var q dto.PaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	payments, err := h.paymentSvc.Payments(c.Request.Context(), q.ToAnyPay())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewListResponse(payments, q.Offset))
}

// CreatePayout handles POST /api/v1/payouts.
func (h *PaymentHandler) CreatePayout(c *gin.Context) {
	var req dto.CreatePayoutRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditDetails, req.AuditDetails())

	payout, err := h.paymentSvc.CreatePayout(c.Request.Context(), req.ToAnyPay())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, strconv.FormatInt(payout.ID, 10))
	response.Created(c, payout)
}

// ListPayouts handles GET /api/v1/payouts.
func (h *PaymentHandler) ListPayouts(c *gin.Context) {
	var q dto.PayoutsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	payouts, err := h.paymentSvc.Payouts(c.Request.Context(), q.ToAnyPay())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewListResponse(payouts, q.Offset))
}

// GetServiceIPs handles GET /api/v1/service-ips.
func (h *PaymentHandler) GetServiceIPs(c *gin.Context) {
	ips, err := h.paymentSvc.ServiceIPs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if ips == nil {
		ips = []string{}
	}
	response.OK(c, dto.ServiceIPsResponse{IPs: ips})
}

// Checkout handles POST /api/v1/checkout.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	c.Set(middleware.CtxAuditDetails, req.AuditDetails())

	url, err := h.paymentSvc.Checkout(c.Request.Context(), req.ToAnyPay())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxAuditResourceID, strconv.FormatInt(req.PayID, 10))
	response.Created(c, dto.CheckoutResponse{URL: url})
}

// bindJSON decodes the body into obj and writes the error response on
// failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if middleware.IsBodyTooLarge(err) {
			response.Error(c, apperror.ErrPayloadTooLarge())
			return false
		}
		response.Error(c, apperror.Validation(err.Error()))
		return false
	}
	return true
}
