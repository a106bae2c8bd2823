package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/store-service/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создает новый репозиторий товаров
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// withMedia подгружает изображения и видео по возрастанию order и категорию
func withMedia(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Videos", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Preload("Category")
}

// CreateWithMedia создает товар вместе с медиа.
// Ошибка на любом шаге откатывает всю транзакцию
func (r *productRepository) CreateWithMedia(ctx context.Context, product *entity.Product, images []entity.Image, videos []entity.ProductVideo) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return fmt.Errorf("failed to insert product: %w", classifyPgError(err))
		}

		if len(images) > 0 {
			for i := range images {
				images[i].ProductID = product.ID
			}
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("failed to insert images: %w", classifyPgError(err))
			}
		}

		if len(videos) > 0 {
			for i := range videos {
				videos[i].ProductID = product.ID
			}
			if err := tx.Create(&videos).Error; err != nil {
				return fmt.Errorf("failed to insert videos: %w", classifyPgError(err))
			}
		}

		return nil
	})
}

// UpdateWithMedia обновляет товар и его медиа.
// Строка товара блокируется (FOR UPDATE), поэтому параллельные добавления медиа
// к одному товару выполняются последовательно и не получают одинаковый order
func (r *productRepository) UpdateWithMedia(ctx context.Context, id uuid.UUID, changes entity.ProductChanges, media entity.MediaUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current entity.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "main_image").
			First(&current, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to lock product: %w", err)
		}

		// Удаление только в пределах своего товара
		if len(media.DeleteImageIDs) > 0 {
			if err := tx.Where("id IN ? AND product_id = ?", media.DeleteImageIDs, id).Delete(&entity.Image{}).Error; err != nil {
				return fmt.Errorf("failed to delete images: %w", err)
			}
		}
		if len(media.DeleteVideoIDs) > 0 {
			if err := tx.Where("id IN ? AND product_id = ?", media.DeleteVideoIDs, id).Delete(&entity.ProductVideo{}).Error; err != nil {
				return fmt.Errorf("failed to delete videos: %w", err)
			}
		}

		if len(media.NewImages) > 0 {
			next, err := nextOrder(tx, &entity.Image{}, id)
			if err != nil {
				return fmt.Errorf("failed to compute image order: %w", err)
			}
			for i := range media.NewImages {
				media.NewImages[i].ProductID = id
				media.NewImages[i].Order = next + i
			}
			if err := tx.Create(&media.NewImages).Error; err != nil {
				return fmt.Errorf("failed to insert images: %w", classifyPgError(err))
			}
		}

		if len(media.NewVideos) > 0 {
			next, err := nextOrder(tx, &entity.ProductVideo{}, id)
			if err != nil {
				return fmt.Errorf("failed to compute video order: %w", err)
			}
			for i := range media.NewVideos {
				media.NewVideos[i].ProductID = id
				media.NewVideos[i].Order = next + i
			}
			if err := tx.Create(&media.NewVideos).Error; err != nil {
				return fmt.Errorf("failed to insert videos: %w", classifyPgError(err))
			}
		}

		columns := changes.Columns()

		if media.MainImage != "" {
			columns["main_image"] = media.MainImage
		} else if len(media.DeleteImageIDs) > 0 && current.MainImage != "" {
			mainImage, changed, err := reselectMainImage(tx, id, current.MainImage)
			if err != nil {
				return err
			}
			if changed {
				columns["main_image"] = mainImage
			}
		}

		if len(columns) == 0 {
			return nil
		}

		if err := tx.Model(&entity.Product{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", classifyPgError(err))
		}

		return nil
	})
}

// nextOrder возвращает MAX(order)+1 для медиа товара, 0 если медиа нет.
// Удалённые позиции повторно не используются
func nextOrder(tx *gorm.DB, model interface{}, productID uuid.UUID) (int, error) {
	var next int
	err := tx.Model(model).
		Select("COALESCE(MAX(sort_order), -1) + 1").
		Where("product_id = ?", productID).
		Scan(&next).Error
	return next, err
}

// reselectMainImage выбирает новое главное изображение, если текущее было удалено.
// Берётся оставшееся изображение с наименьшим order, либо пустая строка
func reselectMainImage(tx *gorm.DB, productID uuid.UUID, mainImage string) (string, bool, error) {
	var remaining int64
	if err := tx.Model(&entity.Image{}).
		Where("product_id = ? AND image = ?", productID, mainImage).
		Count(&remaining).Error; err != nil {
		return "", false, fmt.Errorf("failed to check main image: %w", err)
	}
	if remaining > 0 {
		return mainImage, false, nil
	}

	var first []entity.Image
	if err := tx.Where("product_id = ?", productID).
		Order("sort_order ASC").
		Limit(1).
		Find(&first).Error; err != nil {
		return "", false, fmt.Errorf("failed to reselect main image: %w", err)
	}

	if len(first) == 0 {
		return "", true, nil
	}
	return first[0].Image, true, nil
}

// GetByID получает товар с медиа и категорией
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	var product entity.Product
	result := withMedia(r.db.WithContext(ctx)).First(&product, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", result.Error)
	}

	return &product, nil
}

// GetBySlug получает товар по slug
func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	var product entity.Product
	result := withMedia(r.db.WithContext(ctx)).First(&product, "slug = ?", slug)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by slug: %w", result.Error)
	}

	return &product, nil
}

// List возвращает товары с фильтрами витрины. Неизвестная сортировка игнорируется
func (r *productRepository) List(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	query := withMedia(r.db.WithContext(ctx))

	if filter.Category != "" {
		query = query.Where("category_id IN (?)",
			r.db.Model(&entity.Category{}).Select("id").Where("name = ?", filter.Category))
	}
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.InStockOnly {
		query = query.Where("in_stock > 0")
	}

	switch filter.Sort {
	case entity.SortLowPrice:
		query = query.Order("price ASC")
	case entity.SortHighPrice:
		query = query.Order("price DESC")
	case entity.SortTitleAsc:
		query = query.Order("title ASC")
	case entity.SortTitleDesc:
		query = query.Order("title DESC")
	case entity.SortRating:
		query = query.Order("rating DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var products []entity.Product
	if err := query.Order("id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// Search ищет подстроку в названии и описании.
// Регистр учитывается так, как это делает collation базы
func (r *productRepository) Search(ctx context.Context, query string) ([]entity.Product, error) {
	pattern := "%" + query + "%"

	var products []entity.Product
	result := withMedia(r.db.WithContext(ctx)).
		Where("title LIKE ? OR description LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Find(&products)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to search products: %w", result.Error)
	}

	return products, nil
}

// HasOrderReferences проверяет, есть ли позиции заказов, ссылающиеся на товар
func (r *productRepository) HasOrderReferences(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.CustomerOrderProduct{}).
		Where("product_id = ?", id).
		Count(&count)

	if result.Error != nil {
		return false, fmt.Errorf("failed to check order references: %w", result.Error)
	}

	return count > 0, nil
}

// GetPrices возвращает текущие цены товаров по id
func (r *productRepository) GetPrices(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	var products []entity.Product
	result := r.db.WithContext(ctx).
		Select("id", "price").
		Where("id IN ?", ids).
		Find(&products)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get product prices: %w", result.Error)
	}

	prices := make(map[uuid.UUID]int64, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	return prices, nil
}

// Delete удаляет товар, изображения и видео удаляются каскадно.
// Позиции заказов ограничивают удаление через ON DELETE RESTRICT
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Product{}, "id = ?", id)

	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", classifyPgError(result.Error))
	}

	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ReferencedFiles собирает имена файлов из images, product_videos и products.main_image
func (r *productRepository) ReferencedFiles(ctx context.Context) (map[string]struct{}, error) {
	db := r.db.WithContext(ctx)
	files := make(map[string]struct{})

	var images, videos, mains []string
	if err := db.Model(&entity.Image{}).Pluck("image", &images).Error; err != nil {
		return nil, fmt.Errorf("failed to list image files: %w", err)
	}
	if err := db.Model(&entity.ProductVideo{}).Pluck("video_url", &videos).Error; err != nil {
		return nil, fmt.Errorf("failed to list video files: %w", err)
	}
	if err := db.Model(&entity.Product{}).Where("main_image <> ''").Pluck("main_image", &mains).Error; err != nil {
		return nil, fmt.Errorf("failed to list main images: %w", err)
	}

	for _, group := range [][]string{images, videos, mains} {
		for _, name := range group {
			files[name] = struct{}{}
		}
	}
	return files, nil
}
