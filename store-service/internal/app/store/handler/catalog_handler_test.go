package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCatalogTestRouter(h *CatalogHandler) *gin.Engine {
	router := gin.New()
	router.Use(ErrorHandler())
	router.POST("/api/categories", h.CreateCategory)
	router.DELETE("/api/categories/:id", h.DeleteCategory)
	router.POST("/api/merchants", h.CreateMerchant)
	router.PUT("/api/merchants/:id", h.UpdateMerchant)
	router.DELETE("/api/merchants/:id", h.DeleteMerchant)
	router.GET("/api/merchants/:id", h.GetMerchant)
	return router
}

func jsonRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateCategoryHandler(t *testing.T) {
	catalogService := new(MockCatalogService)
	router := newCatalogTestRouter(NewCatalogHandler(catalogService))

	catalogService.On("CreateCategory", mock.Anything, &entity.CreateCategoryRequest{Name: "Phones"}).
		Return(&entity.Category{ID: uuid.New(), Name: "Phones"}, nil)

	rec := jsonRequest(router, http.MethodPost, "/api/categories", `{"name":"Phones"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Phones")
}

func TestCreateCategoryHandler_ValidationAndConflict(t *testing.T) {
	catalogService := new(MockCatalogService)
	router := newCatalogTestRouter(NewCatalogHandler(catalogService))

	rec := jsonRequest(router, http.MethodPost, "/api/categories", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Name is required")

	rec = jsonRequest(router, http.MethodPost, "/api/categories", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")

	catalogService.On("CreateCategory", mock.Anything, mock.Anything).Return(nil, service.ErrCategoryExists)
	rec = jsonRequest(router, http.MethodPost, "/api/categories", `{"name":"Phones"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteCategoryHandler_InUse(t *testing.T) {
	catalogService := new(MockCatalogService)
	router := newCatalogTestRouter(NewCatalogHandler(catalogService))
	id := uuid.New()

	catalogService.On("DeleteCategory", mock.Anything, id).Return(service.ErrCategoryInUse)

	rec := performRequest(router, http.MethodDelete, "/api/categories/"+id.String(), "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMerchantHandler_NameCheckedByService(t *testing.T) {
	catalogService := new(MockCatalogService)
	router := newCatalogTestRouter(NewCatalogHandler(catalogService))

	catalogService.On("CreateMerchant", mock.Anything, mock.AnythingOfType("*entity.CreateMerchantRequest")).
		Return(nil, &service.ValidationError{Field: "name", Message: "Merchant name is required"})

	rec := jsonRequest(router, http.MethodPost, "/api/merchants", `{"name":"   "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Merchant name is required")
}

func TestCreateMerchantHandler_InvalidEmail(t *testing.T) {
	catalogService := new(MockCatalogService)
	router := newCatalogTestRouter(NewCatalogHandler(catalogService))

	rec := jsonRequest(router, http.MethodPost, "/api/merchants", `{"name":"Shop","email":"not-an-email"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email is email")
	catalogService.AssertNotCalled(t, "CreateMerchant", mock.Anything, mock.Anything)
}

func TestUpdateMerchantHandler_PartialBody(t *testing.T) {
	catalogService := new(MockCatalogService)
	router := newCatalogTestRouter(NewCatalogHandler(catalogService))
	id := uuid.New()

	catalogService.On("UpdateMerchant", mock.Anything, id, mock.AnythingOfType("*entity.UpdateMerchantRequest")).
		Run(func(args mock.Arguments) {
			req := args.Get(2).(*entity.UpdateMerchantRequest)
			assert.Nil(t, req.Name)
			if assert.NotNil(t, req.Status) {
				assert.Equal(t, "INACTIVE", *req.Status)
			}
		}).
		Return(&entity.Merchant{ID: id, Name: "Shop", Status: entity.MerchantStatusInactive}, nil)

	rec := jsonRequest(router, http.MethodPut, "/api/merchants/"+id.String(), `{"status":"INACTIVE"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	catalogService.AssertExpectations(t)
}

func TestDeleteMerchantHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"deleted", nil, http.StatusNoContent, ""},
		{"has products", service.ErrMerchantHasProducts, http.StatusBadRequest, "Cannot delete merchant with existing products"},
		{"not found", service.ErrMerchantNotFound, http.StatusNotFound, "Merchant not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalogService := new(MockCatalogService)
			router := newCatalogTestRouter(NewCatalogHandler(catalogService))
			id := uuid.New()
			catalogService.On("DeleteMerchant", mock.Anything, id).Return(tt.err)

			rec := performRequest(router, http.MethodDelete, "/api/merchants/"+id.String(), "")

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}
