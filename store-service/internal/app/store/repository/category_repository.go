package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/store-service/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository создает новый репозиторий категорий
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create создает категорию, уникальность имени проверяет UNIQUE индекс
func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return fmt.Errorf("failed to create category: %w", classifyPgError(err))
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	var category entity.Category
	result := r.db.WithContext(ctx).First(&category, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", result.Error)
	}

	return &category, nil
}

// GetAll получает все категории, отсортированные по имени
func (r *categoryRepository) GetAll(ctx context.Context) ([]entity.Category, error) {
	var categories []entity.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Category{}).
		Where("id = ?", category.ID).
		Update("name", category.Name)

	if result.Error != nil {
		return fmt.Errorf("failed to update category: %w", classifyPgError(result.Error))
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete удаляет категорию. Товары удаляются каскадно,
// но если хоть один из них есть в заказе, БД вернёт foreign_key_violation
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Category{}, "id = ?", id)

	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", classifyPgError(result.Error))
	}

	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}
