package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"storefront/pkg/logger"
	"storefront/store-service/internal/app/store/config"
	"storefront/store-service/internal/app/store/repository"
	"storefront/store-service/internal/app/store/service"
	"storefront/store-service/internal/app/store/util"

	"github.com/spf13/pflag"
)

const (
	emailFlag    = "email"
	passwordFlag = "password"

	passwordEnv = "ADMIN_PASSWORD"
)

// createadmin создает учетную запись администратора витрины.
// Пароль можно передать через ADMIN_PASSWORD, чтобы он не попадал в историю shell
func main() {
	email := pflag.StringP(emailFlag, "e", "", "admin email")
	password := pflag.StringP(passwordFlag, "p", "", "admin password (or "+passwordEnv+")")
	pflag.Parse()

	if *password == "" {
		*password = os.Getenv(passwordEnv)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init("createadmin", "info")

	if *email == "" || *password == "" {
		logger.Fatal().Msgf("--%s and --%s (or %s) are required", emailFlag, passwordFlag, passwordEnv)
	}

	db, err := util.ConnectDB(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if cfg.Database.AutoMigrate {
		if err := util.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userService := service.NewUserService(repository.NewUserRepository(db), cfg.JWT.AdminRole)
	user, err := userService.CreateAdmin(ctx, *email, *password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			logger.Fatal().Str("email", *email).Msg("User with this email already exists")
		}
		logger.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("Admin %s created with id %s\n", user.Email, user.ID)
}
