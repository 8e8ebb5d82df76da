// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
//
// Конфиг читается из YAML-файла по пути из CONFIG_PATH; значения можно
// переопределить переменными окружения (теги env).
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	GRPCAuthAddress         string `yaml:"grpc_auth_address" env:"GRPC_AUTH_ADDRESS" env-default:":50051"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`

	HTTPServer     HTTPServer     `yaml:"http_server"`
	Redis          Redis          `yaml:"redis_connection"`
	JWTToken       JWTToken       `yaml:"jwttoken"`
	Revocation     Revocation     `yaml:"revocation"`
	RabbitMQ       RabbitMQ       `yaml:"rabbitmq"`
	GoogleOAuth    GoogleOAuth    `yaml:"google_oauth"`
	RateLimit      RateLimit      `yaml:"rate_limit"`
	BootstrapAdmin BootstrapAdmin `yaml:"bootstrap_admin"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// Redis структура для настройки подключения к redis. Пустой адрес отключает кэш.
type Redis struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
	CacheTTL    time.Duration `yaml:"cache_ttl" env:"REDIS_CACHE_TTL" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токенами.
type JWTToken struct {
	SecretKey  string        `yaml:"secret_key" env:"JWT_SECRET_KEY"`
	Issuer     string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"driving-school"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL" env-default:"5m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL" env-default:"24h"`
}

// Revocation выбирает хранилище отозванных токенов: memory, redis или postgres.
type Revocation struct {
	Backend       string `yaml:"backend" env:"REVOCATION_BACKEND" env-default:"postgres"`
	FlushSchedule string `yaml:"flush_schedule" env:"REVOCATION_FLUSH_SCHEDULE" env-default:"@hourly"`
}

// RabbitMQ настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"users"`
	MaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// GoogleOAuth настройки входа через Google. Пустой ClientID отключает вход.
type GoogleOAuth struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"GOOGLE_OAUTH_CALLBACK_URL"`
}

// RateLimit ограничивает частоту запросов к эндпоинтам входа с одного адреса.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"1"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"5"`
}

// BootstrapAdmin — суперпользователь, создаваемый при старте, если его ещё нет.
type BootstrapAdmin struct {
	Email    string `yaml:"email" env:"BOOTSTRAP_ADMIN_EMAIL"`
	Password string `yaml:"password" env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load читает конфиг из файла и проверяет обязательные поля.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTToken.SecretKey == "" {
		return errors.New("jwttoken.secret_key is required")
	}
	switch c.Revocation.Backend {
	case "memory", "postgres":
	case "redis":
		if c.Redis.Address == "" {
			return errors.New("revocation backend redis requires redis_connection.address")
		}
	default:
		return fmt.Errorf("unknown revocation backend %q", c.Revocation.Backend)
	}
	return nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer: %s (timeout %s, idle %s)\n"+
			"GRPCAuthAddress: %s\n"+
			"Redis: %s db=%d\n"+
			"JWT: issuer=%s access=%s refresh=%s\n"+
			"Revocation: %s (%s)\n"+
			"RabbitMQ enabled: %t\n"+
			"Google OAuth enabled: %t\n",
		c.Env,
		c.HTTPServer.Address, c.HTTPServer.Timeout, c.HTTPServer.IdleTimeout,
		c.GRPCAuthAddress,
		c.Redis.Address, c.Redis.DB,
		c.JWTToken.Issuer, c.JWTToken.AccessTTL, c.JWTToken.RefreshTTL,
		c.Revocation.Backend, c.Revocation.FlushSchedule,
		c.RabbitMQ.URL != "",
		c.GoogleOAuth.ClientID != "",
	)
}
