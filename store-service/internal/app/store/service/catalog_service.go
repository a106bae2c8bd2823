package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/repository"
	"storefront/store-service/internal/app/store/util"

	"github.com/google/uuid"
)

const categoriesCacheTTL = time.Hour

// CatalogService обслуживает справочники каталога: категории и продавцов.
// Категории кешируются в Redis, кеш сбрасывается при любой записи
type CatalogService struct {
	categoryRepo repository.CategoryRepository
	merchantRepo repository.MerchantRepository
	cache        util.RedisCache
}

func NewCatalogService(
	categoryRepo repository.CategoryRepository,
	merchantRepo repository.MerchantRepository,
	cache util.RedisCache,
) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		merchantRepo: merchantRepo,
		cache:        cache,
	}
}

// === CATEGORIES ===

func (s *CatalogService) CreateCategory(ctx context.Context, req *entity.CreateCategoryRequest) (*entity.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, missingField("name")
	}

	category := &entity.Category{
		ID:   uuid.New(),
		Name: name,
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.invalidateCategories(ctx)
	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// GetAllCategories сначала читает кеш, при промахе загружает из БД и кеширует
func (s *CatalogService) GetAllCategories(ctx context.Context) ([]entity.Category, error) {
	categories, err := s.cache.GetCategories(ctx)
	if err == nil && len(categories) > 0 {
		return categories, nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read categories cache")
	}

	categories, err = s.categoryRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	if categories == nil {
		categories = []entity.Category{}
	}

	if len(categories) > 0 {
		if err := s.cache.SetCategories(ctx, categories, categoriesCacheTTL); err != nil {
			logger.Warn().Err(err).Msg("failed to cache categories")
		}
	}

	return categories, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, req *entity.UpdateCategoryRequest) (*entity.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, missingField("name")
	}

	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	category.Name = name
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, ErrCategoryNotFound
		case errors.Is(err, repository.ErrDuplicateKey):
			return nil, ErrCategoryExists
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	s.invalidateCategories(ctx)
	return category, nil
}

// DeleteCategory удаляет категорию вместе с её товарами.
// Если товар категории есть в заказе, БД отклоняет каскад
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return ErrCategoryNotFound
		case errors.Is(err, repository.ErrForeignKey):
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.invalidateCategories(ctx)
	return nil
}

func (s *CatalogService) invalidateCategories(ctx context.Context) {
	if err := s.cache.DeleteCategories(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to invalidate categories cache")
	}
}

// === MERCHANTS ===

func (s *CatalogService) CreateMerchant(ctx context.Context, req *entity.CreateMerchantRequest) (*entity.Merchant, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Field: "name", Message: "Merchant name is required"}
	}

	status := entity.MerchantStatusActive
	if req.Status != "" {
		status = entity.MerchantStatus(req.Status)
	}

	merchant := &entity.Merchant{
		ID:          uuid.New(),
		Name:        name,
		Email:       optional(req.Email),
		Phone:       optional(req.Phone),
		Address:     optional(req.Address),
		Description: optional(req.Description),
		Status:      status,
	}

	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, fmt.Errorf("failed to create merchant: %w", err)
	}

	return merchant, nil
}

// GetMerchant возвращает продавца вместе с его товарами
func (s *CatalogService) GetMerchant(ctx context.Context, id uuid.UUID) (*entity.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMerchantNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return merchant, nil
}

func (s *CatalogService) GetAllMerchants(ctx context.Context) ([]entity.Merchant, error) {
	merchants, err := s.merchantRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get merchants: %w", err)
	}
	if merchants == nil {
		merchants = []entity.Merchant{}
	}
	return merchants, nil
}

// UpdateMerchant пишет только переданные поля. Пустая строка очищает необязательное поле
func (s *CatalogService) UpdateMerchant(ctx context.Context, id uuid.UUID, req *entity.UpdateMerchantRequest) (*entity.Merchant, error) {
	columns := make(map[string]interface{})

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, &ValidationError{Field: "name", Message: "Merchant name is required"}
		}
		columns["name"] = name
	}
	if req.Email != nil {
		columns["email"] = optional(req.Email)
	}
	if req.Phone != nil {
		columns["phone"] = optional(req.Phone)
	}
	if req.Address != nil {
		columns["address"] = optional(req.Address)
	}
	if req.Description != nil {
		columns["description"] = optional(req.Description)
	}
	if req.Status != nil && *req.Status != "" {
		columns["status"] = entity.MerchantStatus(*req.Status)
	}

	if len(columns) > 0 {
		if err := s.merchantRepo.Update(ctx, id, columns); err != nil {
			if errors.Is(err, repository.ErrMerchantNotFound) {
				return nil, ErrMerchantNotFound
			}
			return nil, fmt.Errorf("failed to update merchant: %w", err)
		}
	}

	return s.GetMerchant(ctx, id)
}

// DeleteMerchant запрещает удаление продавца, у которого есть товары
func (s *CatalogService) DeleteMerchant(ctx context.Context, id uuid.UUID) error {
	count, err := s.merchantRepo.CountProducts(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count merchant products: %w", err)
	}
	if count > 0 {
		return ErrMerchantHasProducts
	}

	if err := s.merchantRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrMerchantNotFound):
			return ErrMerchantNotFound
		case errors.Is(err, repository.ErrForeignKey):
			return ErrMerchantHasProducts
		}
		return fmt.Errorf("failed to delete merchant: %w", err)
	}
	return nil
}

// optional обрезает пробелы, пустое значение превращается в nil
func optional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
