package handler

import (
	"net/http"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CatalogHandler обрабатывает запросы для категорий и продавцов
type CatalogHandler struct {
	catalogService service.CatalogServiceInterface
	validator      *validator.Validate
}

func NewCatalogHandler(catalogService service.CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

// bindJSON разбирает и валидирует тело запроса
func (h *CatalogHandler) bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return badRequest("Invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return badRequest(formatValidationError(err))
	}
	return nil
}

// ===================== Categories =====================

// CreateCategory обрабатывает POST /api/categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if err := h.bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	category, err := h.catalogService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// GetCategory обрабатывает GET /api/categories/:id
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, err := parseID(c, "Invalid category ID")
	if err != nil {
		c.Error(err)
		return
	}

	category, err := h.catalogService.GetCategory(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// GetAllCategories обрабатывает GET /api/categories
func (h *CatalogHandler) GetAllCategories(c *gin.Context) {
	categories, err := h.catalogService.GetAllCategories(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// UpdateCategory обрабатывает PUT /api/categories/:id
func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, err := parseID(c, "Invalid category ID")
	if err != nil {
		c.Error(err)
		return
	}

	var req entity.UpdateCategoryRequest
	if err := h.bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	category, err := h.catalogService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory обрабатывает DELETE /api/categories/:id
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := parseID(c, "Invalid category ID")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.catalogService.DeleteCategory(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===================== Merchants =====================

// CreateMerchant обрабатывает POST /api/merchants
func (h *CatalogHandler) CreateMerchant(c *gin.Context) {
	var req entity.CreateMerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(badRequest("Invalid request body"))
		return
	}
	// Пустое имя проверяет сервис, чтобы вернуть понятное сообщение
	if err := h.validator.StructExcept(req, "Name"); err != nil {
		c.Error(badRequest(formatValidationError(err)))
		return
	}

	merchant, err := h.catalogService.CreateMerchant(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, merchant)
}

// GetMerchant обрабатывает GET /api/merchants/:id, продавец отдаётся вместе с товарами
func (h *CatalogHandler) GetMerchant(c *gin.Context) {
	id, err := parseID(c, "Invalid merchant ID")
	if err != nil {
		c.Error(err)
		return
	}

	merchant, err := h.catalogService.GetMerchant(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, merchant)
}

// GetAllMerchants обрабатывает GET /api/merchants
func (h *CatalogHandler) GetAllMerchants(c *gin.Context) {
	merchants, err := h.catalogService.GetAllMerchants(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, merchants)
}

// UpdateMerchant обрабатывает PUT /api/merchants/:id
func (h *CatalogHandler) UpdateMerchant(c *gin.Context) {
	id, err := parseID(c, "Invalid merchant ID")
	if err != nil {
		c.Error(err)
		return
	}

	var req entity.UpdateMerchantRequest
	if err := h.bindJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	merchant, err := h.catalogService.UpdateMerchant(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, merchant)
}

// DeleteMerchant обрабатывает DELETE /api/merchants/:id
func (h *CatalogHandler) DeleteMerchant(c *gin.Context) {
	id, err := parseID(c, "Invalid merchant ID")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.catalogService.DeleteMerchant(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
