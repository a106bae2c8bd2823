package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/media"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler_MapsErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &service.ValidationError{Field: "categoryId", Message: "Missing required field: categoryId"}, http.StatusBadRequest, "Missing required field: categoryId"},
		{"upload", &media.UploadError{Code: media.CodeInvalidType, MimeType: "application/pdf"}, http.StatusBadRequest, "Invalid file type: application/pdf"},
		{"request", badRequest("Invalid product ID"), http.StatusBadRequest, "Invalid product ID"},
		{"linked product", fmt.Errorf("delete: %w", service.ErrProductInOrders), http.StatusBadRequest, "Cannot delete: linked to orders"},
		{"merchant with products", service.ErrMerchantHasProducts, http.StatusBadRequest, "Cannot delete merchant with existing products"},
		{"insufficient funds", service.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient wallet balance"},
		{"not found", service.ErrProductNotFound, http.StatusNotFound, "Product not found"},
		{"merchant not found", service.ErrMerchantNotFound, http.StatusNotFound, "Merchant not found"},
		{"duplicate slug", service.ErrSlugTaken, http.StatusConflict, "Product with this slug already exists"},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(logger.GinLoggerMiddleware(), ErrorHandler())
			router.GET("/fail", func(c *gin.Context) {
				c.Error(tt.err)
			})

			req := httptest.NewRequest(http.MethodGet, "/fail", nil)
			req.Header.Set(logger.RequestIDHeader, "req-1")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)

			var body entity.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
			assert.Equal(t, "req-1", body.RequestID)
		})
	}
}

func TestErrorHandler_InternalErrorHidesCause(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		c.Error(errors.New("pq: password authentication failed"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestErrorHandler_SkipsWrittenResponse(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/done", func(c *gin.Context) {
		c.JSON(http.StatusAccepted, gin.H{"ok": true})
		c.Error(errors.New("late error"))
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/done", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
