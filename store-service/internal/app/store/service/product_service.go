package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/media"
	"storefront/store-service/internal/app/store/repository"
	"storefront/store-service/internal/app/store/util"

	"github.com/google/uuid"
)

const (
	defaultRating  = 5
	defaultInStock = 1

	EventProductCreated = "PRODUCT_CREATED"
	EventProductUpdated = "PRODUCT_UPDATED"
	EventProductDeleted = "PRODUCT_DELETED"
)

// FileRemover удаляет записанные медиафайлы (media.Storage)
type FileRemover interface {
	Remove(names ...string)
}

// ProductService - запись товаров вместе с медиа и чтение каталога
type ProductService struct {
	productRepo repository.ProductRepository
	files       FileRemover
	publisher   util.MessagePublisher // Producer для событий о товарах
}

// NewProductService создает сервис товаров с внедрением зависимостей
func NewProductService(
	productRepo repository.ProductRepository,
	files FileRemover,
	publisher util.MessagePublisher,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		files:       files,
		publisher:   publisher,
	}
}

// CreateProduct создает товар с изображениями и видео одной транзакцией.
// При любой ошибке уже записанные файлы удаляются
func (s *ProductService) CreateProduct(ctx context.Context, form *entity.CreateProductForm, files []media.StoredFile) (*entity.Product, error) {
	product, images, videos, err := buildProduct(form, files)
	if err != nil {
		s.discard(files)
		metrics.ProductWrites.WithLabelValues("create", "rejected").Inc()
		return nil, err
	}

	if err := s.productRepo.CreateWithMedia(ctx, product, images, videos); err != nil {
		s.discard(files)
		metrics.ProductWrites.WithLabelValues("create", "failed").Inc()
		return nil, mapWriteError(err, "failed to create product")
	}
	metrics.ProductWrites.WithLabelValues("create", "success").Inc()

	created, err := s.productRepo.GetByID(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created product: %w", err)
	}

	s.publishProductEvent(ctx, EventProductCreated, created)
	return created, nil
}

// UpdateProduct применяет частичное обновление полей, удаление и добавление медиа
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, form *entity.UpdateProductForm, files []media.StoredFile) (*entity.Product, error) {
	changes, err := parseProductChanges(form)
	if err != nil {
		s.discard(files)
		metrics.ProductWrites.WithLabelValues("update", "rejected").Inc()
		return nil, err
	}

	deleteImages, err := parseIDList(form.DeleteImageIDs, "deleteImageIds")
	if err != nil {
		s.discard(files)
		metrics.ProductWrites.WithLabelValues("update", "rejected").Inc()
		return nil, err
	}
	deleteVideos, err := parseIDList(form.DeleteVideoIDs, "deleteVideoIds")
	if err != nil {
		s.discard(files)
		metrics.ProductWrites.WithLabelValues("update", "rejected").Inc()
		return nil, err
	}

	existing, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.discard(files)
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	title := existing.Title
	if changes.Title != nil {
		title = *changes.Title
	}

	imageFiles, videoFiles := splitFiles(files)
	update := entity.MediaUpdate{
		DeleteImageIDs: deleteImages,
		DeleteVideoIDs: deleteVideos,
		NewImages:      newImages(imageFiles, title),
		NewVideos:      newVideos(videoFiles, title),
	}
	if len(imageFiles) > 0 {
		// Индекс относится к новой партии изображений
		update.MainImage = imageFiles[mainImageIndex(deref(form.MainImageIndex), len(imageFiles))].Name
	}

	if err := s.productRepo.UpdateWithMedia(ctx, id, changes, update); err != nil {
		s.discard(files)
		metrics.ProductWrites.WithLabelValues("update", "failed").Inc()
		return nil, mapWriteError(err, "failed to update product")
	}
	metrics.ProductWrites.WithLabelValues("update", "success").Inc()

	updated, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated product: %w", err)
	}

	s.publishProductEvent(ctx, EventProductUpdated, updated)
	return updated, nil
}

// DeleteProduct удаляет товар, если на него не ссылается ни одна позиция заказа
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}

	referenced, err := s.productRepo.HasOrderReferences(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check order references: %w", err)
	}
	if referenced {
		metrics.ProductWrites.WithLabelValues("delete", "rejected").Inc()
		return ErrProductInOrders
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return ErrProductNotFound
		case errors.Is(err, repository.ErrForeignKey):
			// Позиция заказа появилась между проверкой и удалением
			metrics.ProductWrites.WithLabelValues("delete", "rejected").Inc()
			return ErrProductInOrders
		}
		metrics.ProductWrites.WithLabelValues("delete", "failed").Inc()
		return fmt.Errorf("failed to delete product: %w", err)
	}
	metrics.ProductWrites.WithLabelValues("delete", "success").Inc()

	s.files.Remove(productFiles(product)...)
	s.publishProductEvent(ctx, EventProductDeleted, product)
	return nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	product, err := s.productRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

func (s *ProductService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return nonNilProducts(products), nil
}

// SearchProducts ищет подстроку в названии и описании, без пагинации
func (s *ProductService) SearchProducts(ctx context.Context, query string) ([]entity.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "Query parameter required"}
	}

	products, err := s.productRepo.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return nonNilProducts(products), nil
}

// discard удаляет файлы запроса, чья транзакция не состоялась
func (s *ProductService) discard(files []media.StoredFile) {
	if len(files) == 0 {
		return
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	s.files.Remove(names...)
}

// publishProductEvent отправляет событие в Kafka. Ошибка не прерывает операцию
func (s *ProductService) publishProductEvent(ctx context.Context, eventType string, product *entity.Product) {
	event := entity.ProductEvent{
		EventType:  eventType,
		ProductID:  product.ID,
		Slug:       product.Slug,
		Title:      product.Title,
		Price:      product.Price,
		MerchantID: product.MerchantID,
		CategoryID: product.CategoryID,
		Timestamp:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal product event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, product.ID.String(), data); err != nil {
		logger.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("product_id", product.ID.String()).
			Msg("failed to publish product event")
	}
}

// mapWriteError переводит ошибки ограничений БД в ошибки сервиса
func mapWriteError(err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return ErrSlugTaken
	case errors.Is(err, repository.ErrForeignKey):
		return ErrInvalidReference
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// buildProduct проверяет форму создания и собирает строки для вставки.
// Обязательные поля проверяются в порядке title, merchantId, slug, price, categoryId
func buildProduct(form *entity.CreateProductForm, files []media.StoredFile) (*entity.Product, []entity.Image, []entity.ProductVideo, error) {
	title := strings.TrimSpace(form.Title)
	merchantRaw := strings.TrimSpace(form.MerchantID)
	slug := strings.TrimSpace(form.Slug)
	priceRaw := strings.TrimSpace(form.Price)
	categoryRaw := strings.TrimSpace(form.CategoryID)

	required := []struct{ name, value string }{
		{"title", title},
		{"merchantId", merchantRaw},
		{"slug", slug},
		{"price", priceRaw},
		{"categoryId", categoryRaw},
	}
	for _, field := range required {
		if field.value == "" {
			return nil, nil, nil, missingField(field.name)
		}
	}

	merchantID, err := uuid.Parse(merchantRaw)
	if err != nil {
		return nil, nil, nil, invalidField("merchantId")
	}
	price, err := parseNonNegative(priceRaw)
	if err != nil {
		return nil, nil, nil, invalidField("price")
	}
	categoryID, err := uuid.Parse(categoryRaw)
	if err != nil {
		return nil, nil, nil, invalidField("categoryId")
	}

	inStock := defaultInStock
	if raw := strings.TrimSpace(form.InStock); raw != "" {
		v, err := parseNonNegative(raw)
		if err != nil {
			return nil, nil, nil, invalidField("inStock")
		}
		inStock = int(v)
	}

	imageFiles, videoFiles := splitFiles(files)
	if len(imageFiles) == 0 {
		return nil, nil, nil, &ValidationError{Field: "images", Message: "At least one image is required"}
	}

	product := &entity.Product{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		CategoryID:   categoryID,
		Slug:         slug,
		Title:        title,
		Price:        price,
		Rating:       defaultRating,
		Description:  form.Description,
		Manufacturer: form.Manufacturer,
		InStock:      inStock,
		MainImage:    imageFiles[mainImageIndex(form.MainImageIndex, len(imageFiles))].Name,
	}

	return product, newImages(imageFiles, title), newVideos(videoFiles, title), nil
}

// parseProductChanges разбирает форму обновления: пустые значения не меняют поле
func parseProductChanges(form *entity.UpdateProductForm) (entity.ProductChanges, error) {
	var changes entity.ProductChanges

	if v := trimmed(form.MerchantID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return changes, invalidField("merchantId")
		}
		changes.MerchantID = &id
	}
	if v := trimmed(form.CategoryID); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return changes, invalidField("categoryId")
		}
		changes.CategoryID = &id
	}
	if v := trimmed(form.Slug); v != "" {
		changes.Slug = &v
	}
	if v := trimmed(form.Title); v != "" {
		changes.Title = &v
	}
	if v := trimmed(form.Price); v != "" {
		price, err := parseNonNegative(v)
		if err != nil {
			return changes, invalidField("price")
		}
		changes.Price = &price
	}
	if v := trimmed(form.Rating); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 0 || rating > 5 {
			return changes, invalidField("rating")
		}
		changes.Rating = &rating
	}
	if form.Description != nil && *form.Description != "" {
		changes.Description = form.Description
	}
	if form.Manufacturer != nil && *form.Manufacturer != "" {
		changes.Manufacturer = form.Manufacturer
	}
	if v := trimmed(form.InStock); v != "" {
		stock, err := parseNonNegative(v)
		if err != nil {
			return changes, invalidField("inStock")
		}
		inStock := int(stock)
		changes.InStock = &inStock
	}

	return changes, nil
}

// parseIDList разбирает список id через запятую, пустые элементы пропускаются
func parseIDList(raw *string, field string) ([]uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(*raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, invalidField(field)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// mainImageIndex: отсутствующий, некорректный или выходящий за границы индекс даёт 0
func mainImageIndex(raw string, count int) int {
	idx, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || idx < 0 || idx >= count {
		return 0
	}
	return idx
}

// splitFiles делит файлы на изображения и видео с сохранением порядка загрузки
func splitFiles(files []media.StoredFile) (images, videos []media.StoredFile) {
	for _, f := range files {
		if f.Kind == media.KindImage {
			images = append(images, f)
		} else {
			videos = append(videos, f)
		}
	}
	return images, videos
}

// newImages готовит строки Image. Order внутри партии начинается с 0,
// при обновлении репозиторий сдвигает его на MAX(order)+1
func newImages(files []media.StoredFile, title string) []entity.Image {
	if len(files) == 0 {
		return nil
	}
	images := make([]entity.Image, len(files))
	for i, f := range files {
		images[i] = entity.Image{
			ID:      uuid.New(),
			Image:   f.Name,
			Order:   i,
			AltText: fmt.Sprintf("%s - image %d", title, i+1),
		}
	}
	return images
}

func newVideos(files []media.StoredFile, title string) []entity.ProductVideo {
	if len(files) == 0 {
		return nil
	}
	videos := make([]entity.ProductVideo, len(files))
	for i, f := range files {
		videos[i] = entity.ProductVideo{
			ID:       uuid.New(),
			VideoURL: f.Name,
			Title:    fmt.Sprintf("%s video %d", title, i+1),
			Order:    i,
		}
	}
	return videos
}

// productFiles - все файлы товара без повторов: главное изображение, изображения, видео
func productFiles(product *entity.Product) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(product.Images)+len(product.Videos)+1)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	add(product.MainImage)
	for _, img := range product.Images {
		add(img.Image)
	}
	for _, v := range product.Videos {
		add(v.VideoURL)
	}
	return names
}

func parseNonNegative(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func nonNilProducts(products []entity.Product) []entity.Product {
	if products == nil {
		return []entity.Product{}
	}
	return products
}
