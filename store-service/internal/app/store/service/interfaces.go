package service

import (
	"context"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/media"

	"github.com/google/uuid"
)

type ProductServiceInterface interface {
	CreateProduct(ctx context.Context, form *entity.CreateProductForm, files []media.StoredFile) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, form *entity.UpdateProductForm, files []media.StoredFile) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error)
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error)
	SearchProducts(ctx context.Context, query string) ([]entity.Product, error)
}

type CatalogServiceInterface interface {
	CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	GetAllCategories(ctx context.Context) ([]entity.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateMerchant(ctx context.Context, req *entity.CreateMerchantRequest) (*entity.Merchant, error)
	GetMerchant(ctx context.Context, id uuid.UUID) (*entity.Merchant, error)
	GetAllMerchants(ctx context.Context) ([]entity.Merchant, error)
	UpdateMerchant(ctx context.Context, id uuid.UUID, req *entity.UpdateMerchantRequest) (*entity.Merchant, error)
	DeleteMerchant(ctx context.Context, id uuid.UUID) error
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, req *entity.CreateOrderRequest) (*entity.CustomerOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*entity.CustomerOrder, error)
	GetAllOrders(ctx context.Context) ([]entity.CustomerOrder, error)
}

type WalletServiceInterface interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (*entity.WalletBalanceResponse, error)
	GetTransactions(ctx context.Context, userID uuid.UUID, query entity.WalletTransactionQuery) (*entity.WalletTransactionsPage, error)
	CreateTransaction(ctx context.Context, req *entity.CreateWalletTransactionRequest) (*entity.WalletTransaction, *entity.Wallet, error)
	GetStats(ctx context.Context) (*entity.WalletStats, error)
}

type StatsServiceInterface interface {
	GetDashboardStats(ctx context.Context) (*entity.DashboardStats, error)
}
