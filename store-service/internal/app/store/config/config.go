package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки Store Service
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Upload    UploadConfig
	RateLimit RateLimitConfig
	Sweeper   SweeperConfig
	Stats     StatsConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Host        string
	Port        string
	BaseURL     string // Публичный адрес API (API_BASE_URL)
	Development bool   // Разрешает любые http://localhost:* в CORS
	// Прокси, которым доверяется X-Forwarded-For. Пустой список: IP клиента берётся из RemoteAddr
	TrustedProxies []string
}

// DatabaseConfig - настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool   // Выполнять AutoMigrate при старте
	LogLevel     string // silent, error, warn, info
}

// RedisConfig - Redis используется для кеша категорий и rate limiting
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// KafkaConfig - пустой список брокеров отключает публикацию событий
type KafkaConfig struct {
	Brokers      []string
	ProductTopic string // PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_DELETED
	WalletTopic  string // WALLET_TRANSACTION_COMPLETED
}

// JWTConfig - токены выпускаются внешним сервисом аутентификации, здесь только проверка
type JWTConfig struct {
	Secret    string
	AdminRole string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// UploadConfig - ограничения на загружаемые медиафайлы
type UploadConfig struct {
	PublicDir          string
	MaxFileSize        int64
	ImageTypes         []string
	VideoTypes         []string
	MaxMultipartMemory int64
}

// RateLimitConfig - лимиты запросов на окно для разных групп маршрутов
type RateLimitConfig struct {
	Enabled bool
	Window  time.Duration
	General int
	Product int
	Upload  int
	Search  int
	Order   int
	Wallet  int
}

// SweeperConfig - cron удаления осиротевших медиафайлов
type SweeperConfig struct {
	Enabled     bool
	Schedule    string
	GracePeriod time.Duration
}

type StatsConfig struct {
	MonthlyTarget int64 // Месячная цель по выручке в минорных единицах
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// .env необязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load(".env")

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}

	window, err := time.ParseDuration(getEnv("RATE_LIMIT_WINDOW", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_WINDOW value: %w", err)
	}

	grace, err := time.ParseDuration(getEnv("MEDIA_SWEEP_GRACE", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid MEDIA_SWEEP_GRACE value: %w", err)
	}

	development := getEnv("APP_ENV", "development") == "development"

	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("PORT", "3001"),
			BaseURL:        getEnv("API_BASE_URL", "http://localhost:3001"),
			Development:    development,
			TrustedProxies: splitList(getEnv("TRUSTED_PROXIES", "")),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			DBName:       getEnv("DB_NAME", "storefront"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  getEnvBool("DB_AUTO_MIGRATE", true),
			LogLevel:     getEnv("DB_LOG_LEVEL", "warn"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(getEnv("KAFKA_BROKERS", "")),
			ProductTopic: getEnv("KAFKA_PRODUCT_TOPIC", "product_events"),
			WalletTopic:  getEnv("KAFKA_WALLET_TOPIC", "wallet_events"),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
			AdminRole: getEnv("ADMIN_ROLE", "admin"),
		},
		CORS: CORSConfig{
			AllowedOrigins: allowedOrigins(),
		},
		Upload: UploadConfig{
			PublicDir:          getEnv("UPLOAD_DIR", "public"),
			MaxFileSize:        int64(getEnvInt("UPLOAD_MAX_FILE_SIZE", 50*1024*1024)),
			ImageTypes:         splitList(getEnv("UPLOAD_IMAGE_TYPES", "image/jpeg,image/jpg,image/png,image/webp")),
			VideoTypes:         splitList(getEnv("UPLOAD_VIDEO_TYPES", "video/mp4,video/webm,video/ogg")),
			MaxMultipartMemory: int64(getEnvInt("UPLOAD_MULTIPART_MEMORY", 32<<20)),
		},
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", true),
			Window:  window,
			General: getEnvInt("RATE_LIMIT_GENERAL", 1000),
			Product: getEnvInt("RATE_LIMIT_PRODUCT", 300),
			Upload:  getEnvInt("RATE_LIMIT_UPLOAD", 50),
			Search:  getEnvInt("RATE_LIMIT_SEARCH", 200),
			Order:   getEnvInt("RATE_LIMIT_ORDER", 100),
			Wallet:  getEnvInt("RATE_LIMIT_WALLET", 100),
		},
		Sweeper: SweeperConfig{
			Enabled:     getEnvBool("MEDIA_SWEEP_ENABLED", true),
			Schedule:    getEnv("MEDIA_SWEEP_SCHEDULE", "@every 6h"),
			GracePeriod: grace,
		},
		Stats: StatsConfig{
			MonthlyTarget: int64(getEnvInt("STATS_MONTHLY_TARGET", 100000)),
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Address возвращает адрес сервера в формате host:port
func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// allowedOrigins собирает CORS allow-list: локальный фронтенд + FRONTEND_URL и NEXTAUTH_URL
func allowedOrigins() []string {
	origins := []string{"http://localhost:3000", "http://localhost:3001"}
	for _, key := range []string{"NEXTAUTH_URL", "FRONTEND_URL"} {
		if v := strings.TrimRight(os.Getenv(key), "/"); v != "" {
			origins = append(origins, v)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
