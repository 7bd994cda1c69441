// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	LogLevel        string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Storage         `yaml:"storage"`
	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	Messenger       `yaml:"messenger"`
	Metrics         `yaml:"metrics"`
}

// Storage структура для настройки хранилища клиентов.
// Driver "sqlite" (локальный файл Path) или "pgx" (ConnectionString).
// Относительный Path считается от каталога исполняемого файла.
type Storage struct {
	Driver           string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"sqlite"`
	Path             string `yaml:"path" env:"STORAGE_PATH" env-default:"database.db"`
	ConnectionString string `yaml:"connection_string" env:"STORAGE_CONNECTION_STRING"`
	Migrate          bool   `yaml:"migrate" env:"STORAGE_MIGRATE" env-default:"true"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:"127.0.0.1:5000"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	OpenBrowser bool          `yaml:"open_browser" env:"HTTP_OPEN_BROWSER" env-default:"true"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес отключает кеш.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT"`
	TTL          time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"1h"`
}

// RabbitMQ структура для настройки очереди исходящих сообщений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"3s"`
}

// Messenger структура для настройки отправки сообщений.
// Transport "whatsapp" (браузер на этой машине) или "queue" (через RabbitMQ).
type Messenger struct {
	Transport   string        `yaml:"transport" env:"MESSENGER_TRANSPORT" env-default:"whatsapp"`
	ControlURL  string        `yaml:"control_url" env:"MESSENGER_CONTROL_URL"`
	BrowserBin  string        `yaml:"browser_bin" env:"MESSENGER_BROWSER_BIN"`
	UserDataDir string        `yaml:"user_data_dir" env:"MESSENGER_USER_DATA_DIR" env-default:"whatsapp-session"`
	Headless    bool          `yaml:"headless" env:"MESSENGER_HEADLESS" env-default:"false"`
	SendOffset  time.Duration `yaml:"send_offset" env:"MESSENGER_SEND_OFFSET" env-default:"1m"`
	MinInterval time.Duration `yaml:"min_interval" env:"MESSENGER_MIN_INTERVAL" env-default:"1m"`
	PageTimeout time.Duration `yaml:"page_timeout" env:"MESSENGER_PAGE_TIMEOUT" env-default:"90s"`
}

// Metrics структура для настройки эндпоинта prometheus
type Metrics struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
}

// MustLoad функция для загрузки конфига. Если CONFIG_PATH не задан,
// настройки читаются только из переменных окружения со значениями по умолчанию.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Fatalf("file: %s - does not exist", configPath)
		}
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из файла path, а при пустом path из окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Storage.Driver == "sqlite" {
		cfg.Storage.Path = resolvePath(cfg.Storage.Path, os.Executable)
	}
	return &cfg, nil
}

// resolvePath привязывает относительный путь к каталогу исполняемого файла.
// Абсолютные пути, ":memory:" и URI "file:" не меняются.
func resolvePath(path string, executable func() (string, error)) string {
	if filepath.IsAbs(path) || strings.HasPrefix(path, ":") || strings.HasPrefix(path, "file:") {
		return path
	}
	exe, err := executable()
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), path)
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "sqlite":
		if strings.TrimSpace(c.Storage.Path) == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "pgx":
		if strings.TrimSpace(c.Storage.ConnectionString) == "" {
			return fmt.Errorf("storage.connection_string is required for pgx")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Messenger.Transport {
	case "whatsapp":
	case "queue":
		if c.RabbitMQ.RabbitMQURL == "" {
			return fmt.Errorf("rabbitmq.url is required for queue transport")
		}
	default:
		return fmt.Errorf("unknown messenger transport %q", c.Messenger.Transport)
	}
	return nil
}

// SlogLevel переводит LogLevel в уровень slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  Path: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Redis: %s\n"+
			"Messenger:\n"+
			"  Transport: %s\n"+
			"  SendOffset: %s\n",
		c.Env,
		c.Storage.Driver,
		c.Storage.Path,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.Transport,
		c.SendOffset,
	)
}
