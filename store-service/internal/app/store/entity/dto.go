package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CreateProductForm - поля multipart формы POST /api/products.
// Значения приходят строками, разбор и проверка обязательных полей выполняются в service
type CreateProductForm struct {
	MerchantID     string `form:"merchantId"`
	Slug           string `form:"slug"`
	Title          string `form:"title"`
	Price          string `form:"price"`
	Description    string `form:"description"`
	Manufacturer   string `form:"manufacturer"`
	CategoryID     string `form:"categoryId"`
	InStock        string `form:"inStock"`
	MainImageIndex string `form:"mainImageIndex"`
}

// UpdateProductForm - поля multipart формы PUT /api/products/:id.
// nil или пустая строка означает "не менять"
type UpdateProductForm struct {
	MerchantID     *string `form:"merchantId"`
	Slug           *string `form:"slug"`
	Title          *string `form:"title"`
	Price          *string `form:"price"`
	Rating         *string `form:"rating"`
	Description    *string `form:"description"`
	Manufacturer   *string `form:"manufacturer"`
	CategoryID     *string `form:"categoryId"`
	InStock        *string `form:"inStock"`
	MainImageIndex *string `form:"mainImageIndex"`
	DeleteImageIDs *string `form:"deleteImageIds"` // Список id через запятую
	DeleteVideoIDs *string `form:"deleteVideoIds"`
}

// ProductChanges - частичное обновление товара, nil поля не пишутся
type ProductChanges struct {
	MerchantID   *uuid.UUID
	CategoryID   *uuid.UUID
	Slug         *string
	Title        *string
	Price        *int64
	Rating       *int
	Description  *string
	Manufacturer *string
	InStock      *int
}

// Columns возвращает карту колонок для gorm Updates
func (c ProductChanges) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if c.MerchantID != nil {
		cols["merchant_id"] = *c.MerchantID
	}
	if c.CategoryID != nil {
		cols["category_id"] = *c.CategoryID
	}
	if c.Slug != nil {
		cols["slug"] = *c.Slug
	}
	if c.Title != nil {
		cols["title"] = *c.Title
	}
	if c.Price != nil {
		cols["price"] = *c.Price
	}
	if c.Rating != nil {
		cols["rating"] = *c.Rating
	}
	if c.Description != nil {
		cols["description"] = *c.Description
	}
	if c.Manufacturer != nil {
		cols["manufacturer"] = *c.Manufacturer
	}
	if c.InStock != nil {
		cols["in_stock"] = *c.InStock
	}
	return cols
}

// MediaUpdate описывает изменения медиа товара внутри одной транзакции обновления
type MediaUpdate struct {
	DeleteImageIDs []uuid.UUID
	DeleteVideoIDs []uuid.UUID
	NewImages      []Image // Order и ProductID проставляет репозиторий
	NewVideos      []ProductVideo
	MainImage      string // Непустое значение - новый главный файл
}

// ProductFilter - параметры GET /api/products
type ProductFilter struct {
	Category    string     // Имя категории
	MerchantID  *uuid.UUID
	Sort        string     // defaultSort, lowPrice, highPrice, titleAsc, titleDesc, rating
	InStockOnly bool
}

const (
	SortDefault   = "defaultSort"
	SortLowPrice  = "lowPrice"
	SortHighPrice = "highPrice"
	SortTitleAsc  = "titleAsc"
	SortTitleDesc = "titleDesc"
	SortRating    = "rating"
)

// === Categories ===

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UpdateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// === Merchants ===

type CreateMerchantRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Status      string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

type UpdateMerchantRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// === Orders ===

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	Name        string             `json:"name" validate:"required"`
	Lastname    string             `json:"lastname" validate:"required"`
	Email       string             `json:"email" validate:"required,email"`
	Phone       string             `json:"phone" validate:"required"`
	Address     string             `json:"adress" validate:"required"`
	City        string             `json:"city" validate:"required"`
	Country     string             `json:"country" validate:"required"`
	PostalCode  string             `json:"postalCode" validate:"required"`
	OrderNotice string             `json:"orderNotice"`
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// === Wallet ===

// MaxTransactionAmount - верхняя граница суммы одной транзакции (совпадает с тегом max)
const MaxTransactionAmount int64 = 1_000_000_000_000

type CreateWalletTransactionRequest struct {
	UserID      uuid.UUID       `json:"userId" validate:"required"`
	Amount      int64           `json:"amount" validate:"required,gt=0,max=1000000000000"`
	Type        TransactionType `json:"type" validate:"required,oneof=CREDIT DEBIT"`
	Description *string         `json:"description"`
	Reference   *string         `json:"reference"`
	Metadata    json.RawMessage `json:"metadata"`
}

// WalletTransactionQuery - параметры постраничного списка транзакций
type WalletTransactionQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Type   string `form:"type"`
	Status string `form:"status"`
}

type WalletUserInfo struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type WalletBalanceResponse struct {
	ID       uuid.UUID      `json:"id"`
	Balance  int64          `json:"balance"`
	Currency string         `json:"currency"`
	IsActive bool           `json:"isActive"`
	User     WalletUserInfo `json:"user"`
}

type WalletTransactionsPage struct {
	Transactions []WalletTransaction `json:"transactions"`
	Total        int64               `json:"total"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
	TotalPages   int                 `json:"totalPages"`
}

// TransactionStat - агрегат транзакций по (type, status)
type TransactionStat struct {
	Type   TransactionType   `json:"type"`
	Status TransactionStatus `json:"status"`
	Count  int64             `json:"count"`
	Amount int64             `json:"amount"`
}

// RecentTransaction - транзакция с email владельца кошелька для дашборда
type RecentTransaction struct {
	ID        uuid.UUID         `json:"id"`
	Amount    int64             `json:"amount"`
	Type      TransactionType   `json:"type"`
	Status    TransactionStatus `json:"status"`
	UserEmail string            `json:"userEmail"`
	CreatedAt time.Time         `json:"createdAt"`
}

type WalletStats struct {
	TotalWallets       int64               `json:"totalWallets"`
	TotalBalance       int64               `json:"totalBalance"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
	TransactionStats   []TransactionStat   `json:"transactionStats"`
}

// DashboardStats - ответ GET /api/admin/stats
type DashboardStats struct {
	Customers          int64               `json:"customers"`
	Orders             int64               `json:"orders"`
	Revenue            int64               `json:"revenue"`
	MonthlySales       [12]int64           `json:"monthlySales"`
	TargetPercent      float64             `json:"targetPercent"`
	WalletBalance      int64               `json:"walletBalance"`
	ActiveWallets      int64               `json:"activeWallets"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
	TransactionStats   []TransactionStat   `json:"transactionStats"`
}

// ErrorResponse - тело ответа при ошибке
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
