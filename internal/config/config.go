package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Club      ClubConfig      `yaml:"club"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Telegram  TelegramConfig  `yaml:"telegram"`
}

type ServerConfig struct {
	Addr         string        `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	GinMode      string        `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`
}

type DatabaseConfig struct {
	Host              string        `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port              int           `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Username          string        `yaml:"username" env:"DB_USERNAME" env-default:"postgres"`
	Password          string        `yaml:"password" env:"DB_PASSWORD" env-default:"password"`
	DBName            string        `yaml:"dbname" env:"DB_NAME" env-default:"fitclub"`
	SSLMode           string        `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns      int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns      int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	RetryConnAttempts uint          `yaml:"retry_conn_attempts" env:"DB_RETRY_CONN_ATTEMPTS" env-default:"3"`
	RetryConnDelay    time.Duration `yaml:"retry_conn_delay" env:"DB_RETRY_CONN_DELAY" env-default:"1s"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET" env-default:"change-me-in-production"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"AUTH_TOKEN_TTL" env-default:"24h"`
}

// StorageConfig selects the backing store. The memory driver keeps all state
// in-process and optionally seeds demo data, matching the mock-data mode the
// dashboard pages were built against.
type StorageConfig struct {
	Driver   string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
	SeedDemo bool   `yaml:"seed_demo" env:"STORAGE_SEED_DEMO" env-default:"false"`
}

type ClubConfig struct {
	ReferralBonusCredits int           `yaml:"referral_bonus_credits" env:"CLUB_REFERRAL_BONUS" env-default:"5"`
	PhotoGrantTTL        time.Duration `yaml:"photo_grant_ttl" env:"CLUB_PHOTO_GRANT_TTL" env-default:"24h"`
}

type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval" env:"SCHEDULER_INTERVAL" env-default:"1m"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN" env-default:""`
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from the file named by CONFIG_PATH, falling back
// to environment variables alone when it is unset.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return &cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}
	return &cfg, nil
}
