package handler

import (
	"errors"
	"net/http"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// WalletHandler обрабатывает запросы кошелька
type WalletHandler struct {
	walletService service.WalletServiceInterface
	validator     *validator.Validate
}

func NewWalletHandler(walletService service.WalletServiceInterface) *WalletHandler {
	return &WalletHandler{
		walletService: walletService,
		validator:     validator.New(),
	}
}

// GetBalance обрабатывает GET /api/wallet/balance/:userId
// Кошелёк создаётся при первом обращении
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.Error(badRequest("Invalid user ID"))
		return
	}

	balance, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, balance)
}

// GetTransactions обрабатывает GET /api/wallet/transactions/:userId?page=&limit=&type=&status=
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.Error(badRequest("Invalid user ID"))
		return
	}

	var query entity.WalletTransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.Error(badRequest("Invalid query parameters"))
		return
	}

	page, err := h.walletService.GetTransactions(c.Request.Context(), userID, query)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// CreateTransaction обрабатывает POST /api/wallet/transactions
func (h *WalletHandler) CreateTransaction(c *gin.Context) {
	var req entity.CreateWalletTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(badRequest("Invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.Error(badRequest(walletValidationMessage(err)))
		return
	}

	txn, _, err := h.walletService.CreateTransaction(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, txn)
}

// GetStats обрабатывает GET /api/wallet/stats
func (h *WalletHandler) GetStats(c *gin.Context) {
	stats, err := h.walletService.GetStats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// walletValidationMessage: отсутствие userId, amount или type - "Missing required fields"
func walletValidationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			if fieldError.Tag() == "required" {
				return "Missing required fields"
			}
		}
	}
	return formatValidationError(err)
}
