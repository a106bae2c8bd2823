package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/repository"

	"github.com/google/uuid"
)

const OrderStatusProcessing = "processing"

// OrderService оформляет заказы покупателей по текущим ценам товаров
type OrderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

func NewOrderService(orderRepo repository.OrderRepository, productRepo repository.ProductRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		now:         time.Now,
	}
}

// CreateOrder создает заказ и его позиции одной транзакцией.
// Сумма считается из цен в БД, цены из запроса не принимаются
func (s *OrderService) CreateOrder(ctx context.Context, req *entity.CreateOrderRequest) (*entity.CustomerOrder, error) {
	if len(req.Items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "Order must contain at least one product"}
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, invalidField("quantity")
		}
		ids = append(ids, item.ProductID)
	}

	prices, err := s.productRepo.GetPrices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get product prices: %w", err)
	}

	order := &entity.CustomerOrder{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Lastname:    strings.TrimSpace(req.Lastname),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		City:        strings.TrimSpace(req.City),
		Country:     strings.TrimSpace(req.Country),
		PostalCode:  strings.TrimSpace(req.PostalCode),
		OrderNotice: req.OrderNotice,
		Status:      OrderStatusProcessing,
		DateTime:    s.now().UTC(),
		Products:    make([]entity.CustomerOrderProduct, 0, len(req.Items)),
	}

	var total int64
	for _, item := range req.Items {
		price, ok := prices[item.ProductID]
		if !ok {
			return nil, ErrOrderProductNotFound
		}
		total += price * int64(item.Quantity)
		order.Products = append(order.Products, entity.CustomerOrderProduct{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	order.Total = total

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			// Товар удалён между чтением цен и вставкой
			return nil, ErrOrderProductNotFound
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	metrics.OrdersCreated.Inc()
	logger.Info().
		Str("order_id", order.ID.String()).
		Int("items", len(order.Products)).
		Int64("total", order.Total).
		Msg("order created")

	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.CustomerOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

func (s *OrderService) GetAllOrders(ctx context.Context) ([]entity.CustomerOrder, error) {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}
	if orders == nil {
		orders = []entity.CustomerOrder{}
	}
	return orders, nil
}
