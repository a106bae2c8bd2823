package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/repository"
	"storefront/store-service/internal/app/store/util"

	"github.com/google/uuid"
)

const minAdminPasswordLength = 8

// UserService создает служебные учетные записи (команда createadmin)
type UserService struct {
	userRepo  repository.UserRepository
	adminRole string
}

func NewUserService(userRepo repository.UserRepository, adminRole string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		adminRole: adminRole,
	}
}

// CreateAdmin создает администратора с bcrypt паролем. Существующий email не перезаписывается
func (s *UserService) CreateAdmin(ctx context.Context, email, password string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, missingField("email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidField("email")
	}
	if len(password) < minAdminPasswordLength {
		return nil, &ValidationError{
			Field:   "password",
			Message: fmt.Sprintf("Password must be at least %d characters", minAdminPasswordLength),
		}
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:       uuid.New(),
		Email:    email,
		Password: hash,
		Role:     s.adminRole,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("Admin user created")

	return user, nil
}
