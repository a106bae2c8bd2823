package handler

import (
	"context"
	"mime/multipart"

	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/media"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService мок для ProductService в тестах handler
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) CreateProduct(ctx context.Context, form *entity.CreateProductForm, files []media.StoredFile) (*entity.Product, error) {
	args := m.Called(ctx, form, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id uuid.UUID, form *entity.UpdateProductForm, files []media.StoredFile) (*entity.Product, error) {
	args := m.Called(ctx, id, form, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductService) GetProduct(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) GetProductBySlug(ctx context.Context, slug string) (*entity.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Product), args.Error(1)
}

func (m *MockProductService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]entity.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

func (m *MockProductService) SearchProducts(ctx context.Context, query string) ([]entity.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Product), args.Error(1)
}

// MockCatalogService мок для CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Category), args.Error(1)
}

func (m *MockCatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Category), args.Error(1)
}

func (m *MockCatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogService) CreateMerchant(ctx context.Context, req *entity.CreateMerchantRequest) (*entity.Merchant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Merchant), args.Error(1)
}

func (m *MockCatalogService) GetMerchant(ctx context.Context, id uuid.UUID) (*entity.Merchant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Merchant), args.Error(1)
}

func (m *MockCatalogService) GetAllMerchants(ctx context.Context) ([]entity.Merchant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Merchant), args.Error(1)
}

func (m *MockCatalogService) UpdateMerchant(ctx context.Context, id uuid.UUID, req *entity.UpdateMerchantRequest) (*entity.Merchant, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Merchant), args.Error(1)
}

func (m *MockCatalogService) DeleteMerchant(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockOrderService мок для OrderService
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, req *entity.CreateOrderRequest) (*entity.CustomerOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CustomerOrder), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.CustomerOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CustomerOrder), args.Error(1)
}

func (m *MockOrderService) GetAllOrders(ctx context.Context) ([]entity.CustomerOrder, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CustomerOrder), args.Error(1)
}

// MockWalletService мок для WalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetBalance(ctx context.Context, userID uuid.UUID) (*entity.WalletBalanceResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WalletBalanceResponse), args.Error(1)
}

func (m *MockWalletService) GetTransactions(ctx context.Context, userID uuid.UUID, query entity.WalletTransactionQuery) (*entity.WalletTransactionsPage, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WalletTransactionsPage), args.Error(1)
}

func (m *MockWalletService) CreateTransaction(ctx context.Context, req *entity.CreateWalletTransactionRequest) (*entity.WalletTransaction, *entity.Wallet, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*entity.WalletTransaction), args.Get(1).(*entity.Wallet), args.Error(2)
}

func (m *MockWalletService) GetStats(ctx context.Context) (*entity.WalletStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.WalletStats), args.Error(1)
}

// MockStatsService мок для StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetDashboardStats(ctx context.Context) (*entity.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DashboardStats), args.Error(1)
}

// MockMediaSaver мок для media.Storage
type MockMediaSaver struct {
	mock.Mock
}

func (m *MockMediaSaver) SaveAll(files []*multipart.FileHeader) ([]media.StoredFile, error) {
	args := m.Called(files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]media.StoredFile), args.Error(1)
}
