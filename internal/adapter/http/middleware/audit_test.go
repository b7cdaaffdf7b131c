package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"anypay-go/internal/core/domain"
	"anypay-go/internal/core/ports/mocks"
	"anypay-go/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_CreatePayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	var got *domain.AuditLog
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(ctx context.Context, log *domain.AuditLog) {
			got = log
		},
	)

	r := gin.New()
	r.Use(RequestID(), AuditLog(mockAudit))
	r.POST("/api/v1/payments", func(c *gin.Context) {
		c.Set(CtxSubject, "billing-worker")
		c.Set(CtxAuditResourceID, "1001")
		c.Set(CtxAuditDetails, map[string]string{"amount": "150.5"})
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payments", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, domain.AuditActionCreatePayment, got.Action)
	assert.Equal(t, "bill", got.ResourceType)
	assert.Equal(t, "1001", got.ResourceID)
	assert.Equal(t, "billing-worker", got.Subject)
	assert.Equal(t, http.StatusCreated, got.StatusCode)
	assert.Equal(t, w.Header().Get(HeaderRequestID), got.RequestID)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Details), &details))
	assert.Equal(t, map[string]any{"amount": "150.5"}, details["request"])
}

func TestAuditLog_RecordsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	var got *domain.AuditLog
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(ctx context.Context, log *domain.AuditLog) { got = log },
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/payouts", func(c *gin.Context) {
		response.Error(c, errors.New("upstream exploded"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/payouts", nil))

	require.NotNil(t, got)
	assert.Equal(t, domain.AuditActionCreatePayout, got.Action)
	assert.Equal(t, http.StatusInternalServerError, got.StatusCode)
	assert.False(t, got.Succeeded())
	assert.Contains(t, got.Details, "upstream exploded")
}

func TestAuditLog_Checkout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).Do(
		func(ctx context.Context, log *domain.AuditLog) {
			assert.Equal(t, domain.AuditActionCheckout, log.Action)
			assert.Equal(t, "bill_url", log.ResourceType)
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/checkout", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil))
}

func TestAuditLog_SkipsReads(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	// No expectations - Log must not be called for GET

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/payments", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditLog_SkipsUnmappedRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/other", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/other", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
