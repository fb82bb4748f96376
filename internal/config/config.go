package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/VinMeld/autopost/internal/transport"
)

// EnvPrefix prefixes every environment override, e.g. AUTOPOST_API_BASEURL.
const EnvPrefix = "AUTOPOST"

// Bounds for the number of photos a listing may carry.
const (
	MinImages     = 1
	MaxImages     = 10
	DefaultImages = 3
)

// Config holds all configuration for the client and the development backend.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Form    FormConfig    `mapstructure:"form"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
	MockAPI MockAPIConfig `mapstructure:"mockapi"`
}

// APIConfig describes the remote listing API.
type APIConfig struct {
	BaseURL string        `mapstructure:"baseURL" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// FormConfig holds submission form defaults.
type FormConfig struct {
	MaxImages int      `mapstructure:"maxImages" validate:"min=1,max=10"`
	Cities    []string `mapstructure:"cities" validate:"dive,required"`
}

// SessionConfig selects and tunes the session store backend.
type SessionConfig struct {
	Backend       string        `mapstructure:"backend" validate:"oneof=file redis memory"`
	Path          string        `mapstructure:"path" validate:"required_if=Backend file"`
	AccessTTL     time.Duration `mapstructure:"accessTTL" validate:"gt=0"`
	RefreshTTL    time.Duration `mapstructure:"refreshTTL" validate:"gt=0"`
	RedisAddr     string        `mapstructure:"redisAddr" validate:"required_if=Backend redis"`
	RedisPassword string        `mapstructure:"redisPassword"`
	RedisDB       int           `mapstructure:"redisDB" validate:"min=0"`
	RedisPrefix   string        `mapstructure:"redisPrefix"`
}

// LoggingConfig holds logging specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// MockAPIConfig configures the development backend.
type MockAPIConfig struct {
	Port         string        `mapstructure:"port"`
	DataDir      string        `mapstructure:"dataDir"`
	StorageType  string        `mapstructure:"storageType" validate:"oneof=local s3"`
	Bucket       string        `mapstructure:"bucket" validate:"required_if=StorageType s3"`
	Region       string        `mapstructure:"region"`
	JWTSecret    string        `mapstructure:"jwtSecret"`
	TokenTTL     time.Duration `mapstructure:"tokenTTL" validate:"gt=0"`
	SeedEmail    string        `mapstructure:"seedEmail"`
	SeedPassword string        `mapstructure:"seedPassword"`
}

// Load reads configuration from an optional .env file, an optional config
// file at path, and AUTOPOST_* environment variables, in increasing priority.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultPath returns the default location of the config file.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autopost", "config.yaml"), nil
}

func defaultSessionPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".autopost", "session.json")
	}
	return filepath.Join(configDir, "autopost", "session.json")
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.baseURL", transport.DefaultServerURL)
	v.SetDefault("api.timeout", "30s")

	v.SetDefault("form.maxImages", DefaultImages)
	v.SetDefault("form.cities", []string{"Lahore", "Karachi"})

	v.SetDefault("session.backend", "file")
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("session.accessTTL", "1h")
	v.SetDefault("session.refreshTTL", "24h")
	v.SetDefault("session.redisAddr", "localhost:6379")
	v.SetDefault("session.redisPassword", "")
	v.SetDefault("session.redisDB", 0)
	v.SetDefault("session.redisPrefix", "autopost:session:")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")

	v.SetDefault("mockapi.port", transport.DefaultServerPort)
	v.SetDefault("mockapi.dataDir", "mockapi_data")
	v.SetDefault("mockapi.storageType", "local")
	v.SetDefault("mockapi.bucket", "")
	v.SetDefault("mockapi.region", "")
	v.SetDefault("mockapi.jwtSecret", "dev-secret")
	v.SetDefault("mockapi.tokenTTL", "1h")
	v.SetDefault("mockapi.seedEmail", "")
	v.SetDefault("mockapi.seedPassword", "")
}
