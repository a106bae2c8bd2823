package handler

import (
	"net/http"
	"testing"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newWalletTestRouter(h *WalletHandler) *gin.Engine {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/api/wallet/transactions/:userId", h.GetTransactions)
	router.POST("/api/wallet/transactions", h.CreateTransaction)
	return router
}

func TestCreateTransactionHandler_MissingFields(t *testing.T) {
	walletService := new(MockWalletService)
	router := newWalletTestRouter(NewWalletHandler(walletService))

	rec := jsonRequest(router, http.MethodPost, "/api/wallet/transactions", `{"amount":100}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing required fields")
	walletService.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreateTransactionHandler_AmountTooLarge(t *testing.T) {
	walletService := new(MockWalletService)
	router := newWalletTestRouter(NewWalletHandler(walletService))

	rec := jsonRequest(router, http.MethodPost, "/api/wallet/transactions",
		`{"userId":"`+uuid.New().String()+`","amount":9223372036854775000,"type":"CREDIT"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Amount is max")
	walletService.AssertNotCalled(t, "CreateTransaction", mock.Anything, mock.Anything)
}

func TestCreateTransactionHandler_InsufficientFunds(t *testing.T) {
	walletService := new(MockWalletService)
	router := newWalletTestRouter(NewWalletHandler(walletService))
	userID := uuid.New()

	walletService.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*entity.CreateWalletTransactionRequest")).
		Return(nil, nil, service.ErrInsufficientFunds)

	rec := jsonRequest(router, http.MethodPost, "/api/wallet/transactions",
		`{"userId":"`+userID.String()+`","amount":500,"type":"DEBIT"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient wallet balance")
}

func TestCreateTransactionHandler_Success(t *testing.T) {
	walletService := new(MockWalletService)
	router := newWalletTestRouter(NewWalletHandler(walletService))
	userID := uuid.New()
	txn := &entity.WalletTransaction{ID: uuid.New(), Amount: 500, Type: entity.TransactionTypeCredit, Status: entity.TransactionStatusCompleted}

	walletService.On("CreateTransaction", mock.Anything, mock.AnythingOfType("*entity.CreateWalletTransactionRequest")).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(*entity.CreateWalletTransactionRequest)
			assert.Equal(t, userID, req.UserID)
			assert.Equal(t, int64(500), req.Amount)
		}).
		Return(txn, &entity.Wallet{Balance: 500}, nil)

	rec := jsonRequest(router, http.MethodPost, "/api/wallet/transactions",
		`{"userId":"`+userID.String()+`","amount":500,"type":"CREDIT"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"COMPLETED"`)
}

func TestGetTransactionsHandler_BindsQuery(t *testing.T) {
	walletService := new(MockWalletService)
	router := newWalletTestRouter(NewWalletHandler(walletService))
	userID := uuid.New()

	walletService.On("GetTransactions", mock.Anything, userID, entity.WalletTransactionQuery{Page: 2, Limit: 5, Type: "DEBIT"}).
		Return(&entity.WalletTransactionsPage{Transactions: []entity.WalletTransaction{}, Page: 2, Limit: 5}, nil)

	rec := performRequest(router, http.MethodGet, "/api/wallet/transactions/"+userID.String()+"?page=2&limit=5&type=DEBIT", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	walletService.AssertExpectations(t)
}
