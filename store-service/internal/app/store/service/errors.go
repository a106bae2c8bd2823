package service

import (
	"errors"
)

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrMerchantNotFound = errors.New("merchant not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")

	// Конфликты целостности, отдаются как 400
	ErrProductInOrders      = errors.New("cannot delete: linked to orders")
	ErrCategoryInUse        = errors.New("cannot delete category: its products are linked to orders")
	ErrMerchantHasProducts  = errors.New("cannot delete merchant with existing products")
	ErrInvalidReference     = errors.New("merchant or category does not exist")
	ErrOrderProductNotFound = errors.New("one or more products not found")
	ErrInsufficientFunds    = errors.New("insufficient wallet balance")

	// Нарушение уникальности, 409
	ErrSlugTaken      = errors.New("product with this slug already exists")
	ErrCategoryExists = errors.New("category with this name already exists")
	ErrUserExists     = errors.New("user with this email already exists")
)

// ValidationError - отсутствующее или некорректное поле запроса.
// Message отдаётся клиенту как есть
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Missing required field: " + field}
}

func invalidField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "Invalid value for field: " + field}
}
