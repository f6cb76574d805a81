package common

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Server     ServerConfig     `mapstructure:"server"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Validation ValidationConfig `mapstructure:"validation"`
	Downstream DownstreamConfig `mapstructure:"downstream"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig holds review-store configuration
type DatabaseConfig struct {
	Driver           string        `mapstructure:"driver"` // sqlite | postgres
	DSN              string        `mapstructure:"dsn"`
	MaxConns         int32         `mapstructure:"max_conns"`
	MinConns         int32         `mapstructure:"min_conns"`
	MaxConnLifetime  time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `mapstructure:"max_conn_idle_time"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string `mapstructure:"grpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// OCRConfig holds recognizer configuration
type OCRConfig struct {
	Recognizer            string  `mapstructure:"recognizer"` // tesseract | text
	Tesseract             string  `mapstructure:"tesseract"`
	TesseractLang         string  `mapstructure:"tesseract_lang"`
	TessdataDir           string  `mapstructure:"tessdata_dir"`
	PSM                   int     `mapstructure:"psm"`
	OEM                   int     `mapstructure:"oem"`
	EnableTSVConfidence   bool    `mapstructure:"enable_tsv_confidence"`
	DefaultTextConfidence float64 `mapstructure:"default_text_confidence"`
}

// ValidationConfig holds the external validation process settings
type ValidationConfig struct {
	Command         string        `mapstructure:"command"` // empty disables the external strategy
	Args            []string      `mapstructure:"args"`
	PassAsArg       bool          `mapstructure:"pass_as_arg"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ReviewThreshold float64       `mapstructure:"review_threshold"`
}

// DownstreamConfig points accepted records at the ERP intake endpoint
type DownstreamConfig struct {
	URL     string        `mapstructure:"url"` // empty logs accepted records instead
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls the slog handler built by the binaries
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text | json
}

// envBindings keeps the historical env names working next to the nested keys.
var envBindings = map[string]string{
	"database.driver":             "DB_DRIVER",
	"database.dsn":                "DB_URL",
	"database.max_conns":          "DB_MAX_CONNS",
	"database.min_conns":          "DB_MIN_CONNS",
	"database.max_conn_lifetime":  "DB_MAX_CONN_LIFETIME",
	"database.max_conn_idle_time": "DB_MAX_CONN_IDLE_TIME",
	"database.dial_timeout":       "DB_DIAL_TIMEOUT",
	"database.statement_timeout":  "DB_STATEMENT_TIMEOUT",
	"server.grpc_addr":            "GRPC_ADDR",
	"server.metrics_addr":         "METRICS_ADDR",
	"ocr.recognizer":              "OCR_SERVICE",
	"ocr.tesseract":               "TESSERACT_BIN",
	"ocr.tesseract_lang":          "TESSERACT_LANG",
	"ocr.tessdata_dir":            "TESSDATA_PREFIX",
	"ocr.psm":                     "TESSERACT_PSM",
	"ocr.oem":                     "TESSERACT_OEM",
	"ocr.enable_tsv_confidence":   "OCR_TSV_CONFIDENCE",
	"ocr.default_text_confidence": "OCR_TEXT_CONFIDENCE",
	"validation.command":          "VALIDATION_COMMAND",
	"validation.args":             "VALIDATION_ARGS",
	"validation.pass_as_arg":      "VALIDATION_PASS_AS_ARG",
	"validation.timeout":          "VALIDATION_TIMEOUT",
	"validation.review_threshold": "REVIEW_THRESHOLD",
	"downstream.url":              "DOWNSTREAM_URL",
	"downstream.token":            "DOWNSTREAM_TOKEN",
	"downstream.timeout":          "DOWNSTREAM_TIMEOUT",
	"log.level":                   "LOG_LEVEL",
	"log.format":                  "LOG_FORMAT",
}

// LoadConfig loads configuration from environment variables and an optional config file.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigFile(".env")
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:rx-intake.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle_time", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.metrics_addr", ":9090")
	v.SetDefault("ocr.recognizer", "tesseract")
	v.SetDefault("ocr.tesseract", "tesseract")
	v.SetDefault("ocr.tesseract_lang", "por")
	v.SetDefault("ocr.enable_tsv_confidence", true)
	v.SetDefault("ocr.default_text_confidence", 0.9)
	v.SetDefault("validation.command", "")
	v.SetDefault("validation.timeout", 10*time.Second)
	v.SetDefault("validation.review_threshold", 0.85)
	v.SetDefault("downstream.timeout", 30*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// a missing .env is fine; an explicit file that cannot be read is not
	if err := v.ReadInConfig(); err != nil && configFile != "" {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(cfg.Validation.Args) == 1 && strings.Contains(cfg.Validation.Args[0], " ") {
		cfg.Validation.Args = strings.Fields(cfg.Validation.Args[0])
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	switch c.OCR.Recognizer {
	case "tesseract", "text":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("OCR_SERVICE must be tesseract or text, got %q", c.OCR.Recognizer), ErrInvalidInput)
	}
	if c.Validation.Command != "" && c.Validation.Timeout <= 0 {
		return NewAppError("CONFIG_ERROR", "VALIDATION_TIMEOUT must be positive when VALIDATION_COMMAND is set", ErrInvalidInput)
	}
	if c.Validation.ReviewThreshold <= 0 || c.Validation.ReviewThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "REVIEW_THRESHOLD must be in (0, 1]", ErrInvalidInput)
	}
	if c.Downstream.URL != "" {
		if u, err := url.Parse(c.Downstream.URL); err != nil || u.Scheme == "" || u.Host == "" {
			return NewAppError("CONFIG_ERROR", fmt.Sprintf("DOWNSTREAM_URL is not an absolute URL: %q", c.Downstream.URL), ErrInvalidInput)
		}
	}
	return nil
}

// NewLogger builds the process logger from LogConfig.
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
