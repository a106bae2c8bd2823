package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/store-service/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository создает новый репозиторий продавцов
func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) Create(ctx context.Context, merchant *entity.Merchant) error {
	if err := r.db.WithContext(ctx).Omit("Products").Create(merchant).Error; err != nil {
		return fmt.Errorf("failed to create merchant: %w", classifyPgError(err))
	}
	return nil
}

// GetByID получает продавца вместе с его товарами
func (r *merchantRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Merchant, error) {
	var merchant entity.Merchant
	result := r.db.WithContext(ctx).
		Preload("Products", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		First(&merchant, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", result.Error)
	}

	return &merchant, nil
}

func (r *merchantRepository) GetAll(ctx context.Context) ([]entity.Merchant, error) {
	var merchants []entity.Merchant
	result := r.db.WithContext(ctx).
		Preload("Products").
		Order("created_at DESC").
		Find(&merchants)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get merchants: %w", result.Error)
	}

	return merchants, nil
}

// Update обновляет только переданные колонки
func (r *merchantRepository) Update(ctx context.Context, id uuid.UUID, columns map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Merchant{}).
		Where("id = ?", id).
		Updates(columns)

	if result.Error != nil {
		return fmt.Errorf("failed to update merchant: %w", classifyPgError(result.Error))
	}

	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}

	return nil
}

// CountProducts считает товары продавца
func (r *merchantRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&entity.Product{}).
		Where("merchant_id = ?", id).
		Count(&count)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to count merchant products: %w", result.Error)
	}

	return count, nil
}

// Delete удаляет продавца. products.merchant_id объявлен с ON DELETE RESTRICT
func (r *merchantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&entity.Merchant{}, "id = ?", id)

	if result.Error != nil {
		return fmt.Errorf("failed to delete merchant: %w", classifyPgError(result.Error))
	}

	if result.RowsAffected == 0 {
		return ErrMerchantNotFound
	}

	return nil
}
