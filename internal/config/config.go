// Package config loads service configuration from defaults, an optional yaml
// file and OOHLALAA_* environment variables.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steph2502/oohlalaa-shop-go/internal/delivery"
)

type Korapay struct {
	BaseURL        string        `mapstructure:"base_url"`
	Secret         string        `mapstructure:"secret"`
	RedirectURL    string        `mapstructure:"redirect_url"`
	WebhookURL     string        `mapstructure:"webhook_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type Telegram struct {
	BotToken string   `mapstructure:"bot_token"`
	AdminIDs []string `mapstructure:"admin_ids"`
}

type Kafka struct {
	Brokers string `mapstructure:"brokers"` // comma separated, empty disables
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type Delivery struct {
	Zones       []delivery.Zone `mapstructure:"zones"`
	FreeKeyword string          `mapstructure:"free_keyword"`
	DefaultZone string          `mapstructure:"default_zone"`
}

type Orders struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type Carts struct {
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	IdleThreshold    time.Duration `mapstructure:"idle_threshold"`
}

type Config struct {
	Port        string `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`

	Korapay  Korapay  `mapstructure:"korapay"`
	Telegram Telegram `mapstructure:"telegram"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Delivery Delivery `mapstructure:"delivery"`
	Orders   Orders   `mapstructure:"orders"`
	Carts    Carts    `mapstructure:"carts"`

	LowStockThreshold int `mapstructure:"low_stock_threshold"`
}

func (c Config) DeliveryPolicy() delivery.Policy {
	return delivery.Policy{
		Zones:       c.Delivery.Zones,
		FreeKeyword: c.Delivery.FreeKeyword,
		DefaultZone: c.Delivery.DefaultZone,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")

	v.SetDefault("korapay.base_url", "https://api.korapay.com")
	v.SetDefault("korapay.secret", "")
	v.SetDefault("korapay.redirect_url", "")
	v.SetDefault("korapay.webhook_url", "")
	v.SetDefault("korapay.request_timeout", 10*time.Second)

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.admin_ids", []string{})

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "oohlalaa.notifications")
	v.SetDefault("kafka.group_id", "notification-worker")

	v.SetDefault("delivery.zones", []map[string]any{
		{"name": "Default", "fee": 4000},
		{"name": "Lagos Mainland", "fee": 4000},
		{"name": "Lagos Island", "fee": 6000},
	})
	v.SetDefault("delivery.free_keyword", "Covenant University")
	v.SetDefault("delivery.default_zone", "Default")

	v.SetDefault("orders.ttl", 30*time.Minute)
	v.SetDefault("orders.sweep_interval", 5*time.Minute)

	v.SetDefault("carts.reminder_interval", 6*time.Hour)
	v.SetDefault("carts.idle_threshold", 24*time.Hour)

	v.SetDefault("low_stock_threshold", 5)
}

// Load reads configuration. The file is optional; environment variables win
// over it (OOHLALAA_DATABASE_URL, OOHLALAA_KORAPAY_SECRET, ...).
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OOHLALAA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings a running storefront cannot do without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("database_url is required")
	}
	if strings.TrimSpace(c.Korapay.Secret) == "" {
		return errors.New("korapay.secret is required")
	}
	return nil
}
