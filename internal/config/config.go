package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Transport names accepted by TRANSPORT
const (
	TransportCloud  = "cloud"
	TransportDevice = "device"
)

// Config holds the application configuration
type Config struct {
	DataDir      string `env:"DATA_DIR" envDefault:"data"`
	DatabasePath string `env:"DATABASE_PATH"`
	ContentPath  string `env:"CONTENT_PATH"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminToken   string `env:"ADMIN_TOKEN"`
	Console      bool   `env:"CONSOLE" envDefault:"false"`

	Transport          string        `env:"TRANSPORT" envDefault:"cloud"`
	WhatsAppToken      string        `env:"WHATSAPP_TOKEN"`
	PhoneNumberID      string        `env:"WHATSAPP_PHONE_NUMBER_ID"`
	APIVersion         string        `env:"WHATSAPP_API_VERSION" envDefault:"v21.0"`
	APIBase            string        `env:"WHATSAPP_API_BASE" envDefault:"https://graph.facebook.com"`
	AppSecret          string        `env:"WHATSAPP_APP_SECRET"`
	VerifyToken        string        `env:"WHATSAPP_VERIFY_TOKEN"`
	SendTimeout        time.Duration `env:"SEND_TIMEOUT" envDefault:"10s"`
	SendRetries        int           `env:"SEND_RETRIES" envDefault:"2"`
	DefaultCountryCode string        `env:"DEFAULT_COUNTRY_CODE" envDefault:"91"`

	BroadcastDelay time.Duration `env:"BROADCAST_DELAY" envDefault:"100ms"`
	PostEventMode  bool          `env:"POST_EVENT_MODE" envDefault:"false"`
	BaseLanguage   string        `env:"BASE_LANGUAGE" envDefault:"en"`
	CoupleNames    string        `env:"COUPLE_NAMES" envDefault:"Bride & Groom"`
	WeddingDate    string        `env:"WEDDING_DATE" envDefault:"TBD"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty     bool   `env:"LOG_PRETTY" envDefault:"false"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"30"`
}

// LoadConfig loads an optional .env file and then parses the environment.
// The returned bool reports whether a .env file was found.
func LoadConfig(envFiles ...string) (*Config, bool, error) {
	loaded := true
	if err := godotenv.Load(envFiles...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("failed to load env file: %w", err)
		}
		loaded = false
	}

	cfg, err := Parse()
	return cfg, loaded, err
}

// Parse reads configuration from the process environment only
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = cfg.DataDir + "/wedding.db"
	}
	if cfg.ContentPath == "" {
		cfg.ContentPath = cfg.DataDir + "/content.yaml"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportCloud:
		if c.WhatsAppToken == "" || c.PhoneNumberID == "" {
			return fmt.Errorf("cloud transport requires WHATSAPP_TOKEN and WHATSAPP_PHONE_NUMBER_ID")
		}
		if c.AppSecret == "" {
			return fmt.Errorf("cloud transport requires WHATSAPP_APP_SECRET to verify webhook signatures")
		}
	case TransportDevice:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.BroadcastDelay < 0 {
		return fmt.Errorf("BROADCAST_DELAY must not be negative")
	}
	if c.SendRetries < 0 {
		return fmt.Errorf("SEND_RETRIES must not be negative")
	}
	return nil
}
