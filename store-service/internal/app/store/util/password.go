package util

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost - стоимость bcrypt для учетных записей администраторов.
// Выше bcrypt.DefaultCost: хэш считается только в createadmin
const passwordCost = 12

// HashPassword возвращает bcrypt хэш пароля
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
