package handler

import (
	"errors"
	"net/http"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/entity"
	"storefront/store-service/internal/app/store/media"
	"storefront/store-service/internal/app/store/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// requestError - ошибка разбора запроса в handler (некорректный id, JSON, форма)
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(message string) error {
	return &requestError{status: http.StatusBadRequest, message: message}
}

// publicError - статус и сообщение для клиента
type publicError struct {
	status  int
	message string
}

// knownErrors переводит ошибки сервиса в HTTP ответы
var knownErrors = []struct {
	err error
	publicError
}{
	{service.ErrProductNotFound, publicError{http.StatusNotFound, "Product not found"}},
	{service.ErrCategoryNotFound, publicError{http.StatusNotFound, "Category not found"}},
	{service.ErrMerchantNotFound, publicError{http.StatusNotFound, "Merchant not found"}},
	{service.ErrOrderNotFound, publicError{http.StatusNotFound, "Order not found"}},
	{service.ErrUserNotFound, publicError{http.StatusNotFound, "User not found"}},

	{service.ErrProductInOrders, publicError{http.StatusBadRequest, "Cannot delete: linked to orders"}},
	{service.ErrCategoryInUse, publicError{http.StatusBadRequest, "Cannot delete category: its products are linked to orders"}},
	{service.ErrMerchantHasProducts, publicError{http.StatusBadRequest, "Cannot delete merchant with existing products"}},
	{service.ErrInvalidReference, publicError{http.StatusBadRequest, "Merchant or category does not exist"}},
	{service.ErrOrderProductNotFound, publicError{http.StatusBadRequest, "One or more products not found"}},
	{service.ErrInsufficientFunds, publicError{http.StatusBadRequest, "Insufficient wallet balance"}},

	{service.ErrSlugTaken, publicError{http.StatusConflict, "Product with this slug already exists"}},
	{service.ErrCategoryExists, publicError{http.StatusConflict, "Category with this name already exists"}},
	{service.ErrUserExists, publicError{http.StatusConflict, "User with this email already exists"}},
}

// classifyError возвращает статус и сообщение. ok=false - внутренняя ошибка
func classifyError(err error) (publicError, bool) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return publicError{reqErr.status, reqErr.message}, true
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return publicError{http.StatusBadRequest, validationErr.Message}, true
	}

	var uploadErr *media.UploadError
	if errors.As(err, &uploadErr) {
		return publicError{http.StatusBadRequest, uploadErr.Error()}, true
	}

	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			return known.publicError, true
		}
	}

	return publicError{http.StatusInternalServerError, "Internal server error"}, false
}

// ErrorHandler отвечает на ошибку, переданную обработчиком через c.Error.
// Внутренние ошибки логируются с request id, клиент получает общий ответ 500
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := logger.RequestID(c)
		resp, known := classifyError(err)

		if !known {
			logger.Error().
				Err(err).
				Str("request_id", requestID).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("request failed")
		}

		c.JSON(resp.status, entity.ErrorResponse{Error: resp.message, RequestID: requestID})
	}
}

// formatValidationError возвращает первую ошибку валидатора в читаемом виде
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
