package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the Clip Relay service
type Config struct {
	Server struct {
		Port        int           `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
		ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		// WriteTimeout must exceed the fetch timeout: /v1/clip holds the
		// response open while the article downloads.
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		BodyLimit    int           `env:"BODY_LIMIT" envDefault:"1048576" validate:"min=1"` // 1MB
	}

	Vault struct {
		Dir string `env:"VAULT_DIR" envDefault:"./vault"`
	}

	Settings struct {
		Path string `env:"SETTINGS_PATH" envDefault:"./data/settings.json"`
	}

	Fetch struct {
		ReaderServiceURL string        `env:"READER_SERVICE_URL"`
		Timeout          time.Duration `env:"FETCH_TIMEOUT" envDefault:"30s"`
	}

	Notify struct {
		WebhookURL string `env:"NOTIFY_WEBHOOK_URL"`
	}

	Security struct {
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," validate:"cors_origins"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
		Format string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json text"`
	}
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration using struct tags
func Validate(cfg *Config) error {
	validator := validator.New()

	if err := validator.RegisterValidation("cors_origins", validateCORSOrigins); err != nil {
		return fmt.Errorf("failed to register cors_origins validation: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCORSOrigins validates CORS origins format
func validateCORSOrigins(fl validator.FieldLevel) bool {
	origins := fl.Field().Interface().([]string)
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return false
		}
	}
	return true
}

// validateCustomRules performs additional validation beyond struct tags
func validateCustomRules(cfg *Config) error {
	if cfg.Vault.Dir == "" {
		return fmt.Errorf("vault directory cannot be empty")
	}
	if cfg.Settings.Path == "" {
		return fmt.Errorf("settings path cannot be empty")
	}

	if cfg.Server.ReadTimeout < time.Millisecond {
		return fmt.Errorf("read timeout must be at least 1ms")
	}
	if cfg.Server.WriteTimeout < time.Millisecond {
		return fmt.Errorf("write timeout must be at least 1ms")
	}
	if cfg.Fetch.Timeout < time.Second {
		return fmt.Errorf("fetch timeout must be at least 1 second")
	}

	if url := cfg.Fetch.ReaderServiceURL; url != "" {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("reader service URL must start with http:// or https://")
		}
	}
	if url := cfg.Notify.WebhookURL; url != "" {
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("notify webhook URL must start with http:// or https://")
		}
	}

	return nil
}

// EnsureDirectories creates all required directories
func (cfg *Config) EnsureDirectories() error {
	dirs := []string{
		cfg.Vault.Dir,
		filepath.Dir(cfg.Settings.Path),
	}

	for _, dir := range dirs {
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("cannot create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
			case "cors_origins":
				messages = append(messages, fmt.Sprintf("%s contains invalid origin format", e.Field()))
			default:
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag()))
			}
		}
		return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
	}
	return err
}
