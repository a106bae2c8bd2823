package handler

import (
	"net/http"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// OrderHandler обрабатывает оформление заказов витрины
type OrderHandler struct {
	orderService service.OrderServiceInterface
	validator    *validator.Validate
}

func NewOrderHandler(orderService service.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		validator:    validator.New(),
	}
}

// CreateOrder обрабатывает POST /api/orders
// Сумма заказа считается по текущим ценам товаров
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req entity.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(badRequest("Invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.Error(badRequest(formatValidationError(err)))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder обрабатывает GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := parseID(c, "Invalid order ID")
	if err != nil {
		c.Error(err)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetAllOrders обрабатывает GET /api/orders
func (h *OrderHandler) GetAllOrders(c *gin.Context) {
	orders, err := h.orderService.GetAllOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, orders)
}
