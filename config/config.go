package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	API      APIConfig
	Logger   LoggerConfig
	Storage  StorageConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Cart     CartConfig
	Checkout CheckoutConfig
	Catalog  CatalogConfig
	Locale   LocaleConfig
}

type APIConfig struct {
	AppEnv  string
	BaseURL string
	Timeout time.Duration
	// Token is the bearer credential of the current session, if any.
	Token string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type StorageConfig struct {
	// Driver is one of file, redis, postgres, mongo or memory.
	Driver    string
	FilePath  string
	KeyPrefix string
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// StatusTopic carries OrderStatusChanged events from the backend.
	StatusTopic string
	GroupID     string
	Enabled     bool
}

type JWTConfig struct {
	SecretKey string
}

type CartConfig struct {
	StoreID          int64
	RemoteTimeout    time.Duration
	ReconcileOnStart bool
}

type CheckoutConfig struct {
	DeliveryFee     string
	ProcessingDelay time.Duration
}

type CatalogConfig struct {
	CacheTTL      time.Duration
	MaxConcurrent int
}

type LocaleConfig struct {
	Language string
	// ExtraFile is an optional message file loaded on top of the embedded ones.
	ExtraFile string
}

var apiURLs = map[string]string{
	"development": "http://localhost:3000",
	"production":  "https://sua-api.com",
	"uat":         "https://uat.sua-api.com",
	"dev":         "https://dev.sua-api.com",
}

func LoadEnv() *Config {
	appEnv := getEnv("APP_ENV", "development")
	baseURL, ok := apiURLs[appEnv]
	if !ok {
		baseURL = apiURLs["development"]
	}

	return &Config{
		API: APIConfig{
			AppEnv:  appEnv,
			BaseURL: getEnv("API_BASE_URL", baseURL),
			Timeout: getEnvDuration("API_TIMEOUT", 15*time.Second),
			Token:   getEnv("API_TOKEN", ""),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "info"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		Storage: StorageConfig{
			Driver:    getEnv("STORAGE_DRIVER", "file"),
			FilePath:  getEnv("STORAGE_FILE_PATH", ".freshmarket/storage.json"),
			KeyPrefix: getEnv("STORAGE_KEY_PREFIX", "freshmarket:"),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5432"),
			User:            getEnv("POSTGRES_USER", "freshmarket"),
			Password:        getEnv("POSTGRES_PASSWORD", "freshmarket"),
			DBName:          getEnv("POSTGRES_DB", "freshmarket_client"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:   getEnv("MONGO_DATABASE", "freshmarket"),
			Collection: getEnv("MONGO_COLLECTION", "client_storage"),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:       getEnv("KAFKA_TOPIC_ORDERS", "orders.events"),
			StatusTopic: getEnv("KAFKA_TOPIC_ORDER_STATUS", "orders.status"),
			GroupID:     getEnv("KAFKA_GROUP_ID", "freshmarket-storefront"),
			Enabled:     getEnvBool("KAFKA_ENABLED", false),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", ""),
		},
		Cart: CartConfig{
			StoreID:          int64(getEnvInt("CART_STORE_ID", 2)),
			RemoteTimeout:    getEnvDuration("CART_REMOTE_TIMEOUT", 10*time.Second),
			ReconcileOnStart: getEnvBool("CART_RECONCILE_ON_START", true),
		},
		Checkout: CheckoutConfig{
			DeliveryFee:     getEnv("CHECKOUT_DELIVERY_FEE", "5.99"),
			ProcessingDelay: getEnvDuration("CHECKOUT_PROCESSING_DELAY", 2*time.Second),
		},
		Catalog: CatalogConfig{
			CacheTTL:      getEnvDuration("CATALOG_CACHE_TTL", 5*time.Minute),
			MaxConcurrent: getEnvInt("CATALOG_MAX_CONCURRENT", 4),
		},
		Locale: LocaleConfig{
			Language:  getEnv("LOCALE", "pt-BR"),
			ExtraFile: getEnv("LOCALE_FILE", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.Split(value, ",")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
