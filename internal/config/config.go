package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"spdqr/internal/logger"
	"spdqr/internal/qr"
)

var validate = validator.New()

type Config struct {
	// QR Rendering Configuration
	QRSize          int    `validate:"gte=21,lte=4096"`
	QRMargin        int    `validate:"gte=0,lte=16"`
	QRRecoveryLevel string `validate:"oneof=L M Q H"`

	// Batch Configuration
	BatchWorkers int `validate:"gte=1,lte=256"`

	// Logging Configuration
	LogLevel      string `validate:"oneof=trace debug info warn error fatal panic disabled"`
	LogFormat     string `validate:"oneof=console json"`
	LogTimeFormat string
	LogOutput     string `validate:"required"`
}

func Load() (*Config, error) {
	config := &Config{
		QRSize:          getEnvInt("QR_SIZE", 300),
		QRMargin:        getEnvInt("QR_MARGIN", 2),
		QRRecoveryLevel: strings.ToUpper(getEnv("QR_RECOVERY_LEVEL", "H")),
		BatchWorkers:    getEnvInt("BATCH_WORKERS", 4),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "console")),
		LogTimeFormat:   getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:       getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", envName(fe.Field()), describe(fe)))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// GetQROptions returns rasterization options from the main config
func (c *Config) GetQROptions() (qr.Options, error) {
	level, err := qr.ParseLevel(c.QRRecoveryLevel)
	if err != nil {
		return qr.Options{}, err
	}
	return qr.Options{
		Format: qr.FormatPNG,
		Size:   c.QRSize,
		Margin: c.QRMargin,
		Level:  level,
	}, nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}

var envNames = map[string]string{
	"QRSize":          "QR_SIZE",
	"QRMargin":        "QR_MARGIN",
	"QRRecoveryLevel": "QR_RECOVERY_LEVEL",
	"BatchWorkers":    "BATCH_WORKERS",
	"LogLevel":        "LOG_LEVEL",
	"LogFormat":       "LOG_FORMAT",
	"LogTimeFormat":   "LOG_TIME_FORMAT",
	"LogOutput":       "LOG_OUTPUT",
}

func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return name
	}
	return field
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns -1 for unparsable values so validation reports them.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return -1
	}
	return n
}
