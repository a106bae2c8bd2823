package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/store-service/internal/app/store/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB // GORM DB для работы с PostgreSQL
}

// NewOrderRepository создает новый репозиторий заказов
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создает заказ и его позиции в одной транзакции
func (r *orderRepository) Create(ctx context.Context, order *entity.CustomerOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", classifyPgError(err))
		}

		if len(order.Products) == 0 {
			return nil
		}

		for i := range order.Products {
			order.Products[i].CustomerOrderID = order.ID
		}
		if err := tx.Omit("Product").Create(&order.Products).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", classifyPgError(err))
		}

		return nil
	})
}

// GetByID получает заказ с позициями и товарами
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CustomerOrder, error) {
	var order entity.CustomerOrder
	result := r.db.WithContext(ctx).
		Preload("Products.Product").
		First(&order, "id = ?", id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", result.Error)
	}

	return &order, nil
}

func (r *orderRepository) GetAll(ctx context.Context) ([]entity.CustomerOrder, error) {
	var orders []entity.CustomerOrder
	if err := r.db.WithContext(ctx).Order("date_time DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.CustomerOrder{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// SumTotal возвращает выручку по всем заказам
func (r *orderRepository) SumTotal(ctx context.Context) (int64, error) {
	var total int64
	result := r.db.WithContext(ctx).
		Model(&entity.CustomerOrder{}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to sum order totals: %w", result.Error)
	}

	return total, nil
}

func (r *orderRepository) TotalsSince(ctx context.Context, from time.Time) ([]entity.CustomerOrder, error) {
	var orders []entity.CustomerOrder
	result := r.db.WithContext(ctx).
		Select("date_time", "total").
		Where("date_time >= ?", from).
		Find(&orders)

	if result.Error != nil {
		return nil, fmt.Errorf("failed to get order totals: %w", result.Error)
	}

	return orders, nil
}
