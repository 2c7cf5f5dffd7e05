// Package config loads onboard settings from defaults, an optional yaml file,
// an optional .env file and ONBOARD_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. ONBOARD_API_BASE_URL.
	EnvPrefix = "ONBOARD"
	// DefaultConfigName is looked up in the working directory when no file is given.
	DefaultConfigName = "onboard"
	// DefaultEnvFile is loaded when present.
	DefaultEnvFile = ".env"
)

// Config is the resolved configuration.
type Config struct {
	API  APIConfig  `mapstructure:"api" json:"api" yaml:"api"`
	Form FormConfig `mapstructure:"form" json:"form" yaml:"form"`
	Log  LogConfig  `mapstructure:"log" json:"log" yaml:"log"`
	Stub StubConfig `mapstructure:"stub" json:"stub" yaml:"stub"`
}

// APIConfig points the client at the onboarding service.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url" json:"baseUrl" yaml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" json:"userAgent" yaml:"user_agent"`
}

// FormConfig tunes the session timers.
type FormConfig struct {
	Debounce      time.Duration `mapstructure:"debounce" json:"debounce" yaml:"debounce"`
	SuccessWindow time.Duration `mapstructure:"success_window" json:"successWindow" yaml:"success_window"`
	// SettleTimeout bounds how long the terminal form waits for a lookup.
	SettleTimeout time.Duration `mapstructure:"settle_timeout" json:"settleTimeout" yaml:"settle_timeout"`
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// StubConfig configures the local stand-in service.
type StubConfig struct {
	Addr         string   `mapstructure:"addr" json:"addr" yaml:"addr"`
	ValidNumbers []string `mapstructure:"valid_numbers" json:"validNumbers" yaml:"valid_numbers"`
}

// Options control where Load looks.
type Options struct {
	// ConfigFile is an explicit yaml path; it must exist when set.
	ConfigFile string
	// EnvFile is an explicit dotenv path; it must exist when set.
	EnvFile string
	// SearchPaths are scanned for onboard.yaml when ConfigFile is empty.
	SearchPaths []string
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "https://fe-hometask-api.qa.vault.tryvault.com",
			Timeout:   10 * time.Second,
			UserAgent: "go-onboarding",
		},
		Form: FormConfig{
			Debounce:      500 * time.Millisecond,
			SuccessWindow: 3 * time.Second,
			SettleTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Stub: StubConfig{
			Addr:         "127.0.0.1:8080",
			ValidNumbers: []string{"123456789", "826417395", "591863427", "312574689", "287965143"},
		},
	}
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, Defaults())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		paths := opts.SearchPaths
		if len(paths) == 0 {
			paths = []string{"."}
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	return ozzo.Errors{
		"api": ozzo.ValidateStruct(&c.API,
			ozzo.Field(&c.API.BaseURL, ozzo.Required, ozzo.By(absoluteURL)),
			ozzo.Field(&c.API.Timeout, ozzo.Required, ozzo.Min(time.Duration(1)).Error("must be positive")),
		),
		"form": ozzo.ValidateStruct(&c.Form,
			ozzo.Field(&c.Form.Debounce, ozzo.Required, ozzo.Min(time.Duration(1)).Error("must be positive")),
			ozzo.Field(&c.Form.SuccessWindow, ozzo.Required, ozzo.Min(time.Duration(1)).Error("must be positive")),
			ozzo.Field(&c.Form.SettleTimeout, ozzo.Required, ozzo.Min(time.Duration(1)).Error("must be positive")),
		),
		"log": ozzo.ValidateStruct(&c.Log,
			ozzo.Field(&c.Log.Level, ozzo.Required, ozzo.In("debug", "info", "warn", "error")),
			ozzo.Field(&c.Log.Format, ozzo.Required, ozzo.In("console", "json")),
		),
	}.Filter()
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.user_agent", d.API.UserAgent)
	v.SetDefault("form.debounce", d.Form.Debounce)
	v.SetDefault("form.success_window", d.Form.SuccessWindow)
	v.SetDefault("form.settle_timeout", d.Form.SettleTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("stub.addr", d.Stub.Addr)
	v.SetDefault("stub.valid_numbers", d.Stub.ValidNumbers)
}

func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("config: load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(DefaultEnvFile); err != nil {
		return nil
	}
	if err := godotenv.Load(DefaultEnvFile); err != nil {
		return fmt.Errorf("config: load env file: %w", err)
	}
	return nil
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}
