package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"sort"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/media"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Поля формы, файлы из которых идут первыми. Остальные поля берутся по алфавиту
var mediaFields = []string{"images", "videos"}

// MediaSaver записывает загруженные файлы в публичную директорию (media.Storage)
type MediaSaver interface {
	SaveAll(files []*multipart.FileHeader) ([]media.StoredFile, error)
}

// ProductHandler обрабатывает HTTP запросы для товаров
type ProductHandler struct {
	productService service.ProductServiceInterface
	storage        MediaSaver
}

func NewProductHandler(productService service.ProductServiceInterface, storage MediaSaver) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storage:        storage,
	}
}

// CreateProduct обрабатывает POST /api/products (multipart/form-data)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var form entity.CreateProductForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(badRequest("Invalid form data"))
		return
	}

	files, err := h.saveUploads(c)
	if err != nil {
		c.Error(err)
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), &form, files)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// UpdateProduct обрабатывает PUT /api/products/:id (multipart/form-data)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := parseID(c, "Invalid product ID")
	if err != nil {
		c.Error(err)
		return
	}

	var form entity.UpdateProductForm
	if err := c.ShouldBind(&form); err != nil {
		c.Error(badRequest("Invalid form data"))
		return
	}

	files, err := h.saveUploads(c)
	if err != nil {
		c.Error(err)
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, &form, files)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct обрабатывает DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := parseID(c, "Invalid product ID")
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetProduct обрабатывает GET /api/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := parseID(c, "Invalid product ID")
	if err != nil {
		c.Error(err)
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetProductBySlug обрабатывает GET /api/slugs/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	product, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts обрабатывает GET /api/products?category=&merchantId=&sort=&inStock=true
// Неизвестные значения фильтров игнорируются
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := entity.ProductFilter{
		Category:    c.Query("category"),
		Sort:        c.Query("sort"),
		InStockOnly: c.Query("inStock") == "true",
	}
	if merchantID, err := uuid.Parse(c.Query("merchantId")); err == nil {
		filter.MerchantID = &merchantID
	}

	products, err := h.productService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// SearchProducts обрабатывает GET /api/search?query=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.productService.SearchProducts(c.Request.Context(), c.Query("query"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// saveUploads пишет на диск все файлы запроса. Запрос без multipart тела не содержит файлов
func (h *ProductHandler) saveUploads(c *gin.Context) ([]media.StoredFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, badRequest("Invalid multipart form")
	}

	headers := collectFiles(form.File)
	if len(headers) == 0 {
		return nil, nil
	}
	return h.storage.SaveAll(headers)
}

// collectFiles собирает файлы из всех полей формы в стабильном порядке:
// сначала images, затем videos, затем остальные поля по имени.
// Внутри поля порядок загрузки сохраняется
func collectFiles(fields map[string][]*multipart.FileHeader) []*multipart.FileHeader {
	var files []*multipart.FileHeader
	for _, name := range mediaFields {
		files = append(files, fields[name]...)
	}

	rest := make([]string, 0, len(fields))
	for name := range fields {
		if name != "images" && name != "videos" {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	for _, name := range rest {
		files = append(files, fields[name]...)
	}
	return files
}

func parseID(c *gin.Context, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, badRequest(message)
	}
	return id, nil
}
