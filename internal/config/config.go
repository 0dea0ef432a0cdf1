package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimezone        = "Europe/Moscow"
	DefaultBackendTimeout  = 10 * time.Second
	DefaultBackendCacheTTL = 30 * time.Second
	DefaultSessionTTL      = 24 * time.Hour
)

type Config struct {
	App           AppConfig           `yaml:"app"`
	Telegram      TelegramConfig      `yaml:"telegram"`
	Backend       BackendConfig       `yaml:"backend"`
	Admins        AdminsConfig        `yaml:"admins"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Redis         RedisConfig         `yaml:"redis"`
	Session       SessionConfig       `yaml:"session"`
	Content       ContentConfig       `yaml:"content"`
	Bot           BotConfig           `yaml:"bot"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Exports       ExportConfig        `yaml:"exports"`
	Logging       LoggingConfig       `yaml:"logging"`
	Timezone      string              `yaml:"timezone"`

	location *time.Location
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" validate:"required"`
	Debug    bool   `yaml:"debug"`
	// Timeout for long polling, seconds.
	UpdateTimeout int `yaml:"update_timeout"`
}

type BackendConfig struct {
	URL      string        `yaml:"url" validate:"required,url"`
	Token    string        `yaml:"token" validate:"required"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type AdminsConfig struct {
	IDs          []int64 `yaml:"ids" validate:"min=1"`
	AlertsChatID int64   `yaml:"alerts_chat_id"`
}

type NotificationsConfig struct {
	AggregateWindow   time.Duration `yaml:"aggregate_window"`
	AggregateEvery    int           `yaml:"aggregate_every"`
	AggregateCapacity int           `yaml:"aggregate_capacity"`
	// Outbound messages per second per chat.
	SendRate  float64 `yaml:"send_rate"`
	SendBurst int     `yaml:"send_burst"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type ContentConfig struct {
	DBPath   string        `yaml:"db_path"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Empty BackupPath disables snapshots of the content store.
	BackupPath      string        `yaml:"backup_path"`
	BackupInterval  time.Duration `yaml:"backup_interval"`
	BackupRetention time.Duration `yaml:"backup_retention"`
}

type BotConfig struct {
	RateLimitMessages int `yaml:"rate_limit_messages"`
	// Seconds.
	RateLimitWindow int `yaml:"rate_limit_window"`
	DateSuggestions int `yaml:"date_suggestions"`
	MyBookingsLimit int `yaml:"my_bookings_limit"`
	// HH:MM in the configured timezone; empty disables the admin digest.
	DigestTime string `yaml:"digest_time"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	HealthCheckPort   int  `yaml:"health_check_port"`
	GRPCHealthPort    int  `yaml:"grpc_health_port"`
	// Per-client limit on the ops endpoints; 0 disables it.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads the YAML file at configPath (optional when the environment carries
// every required setting), applies environment overrides and defaults, and validates.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var config Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		expandedData := []byte(os.ExpandEnv(string(data)))
		if err := yaml.Unmarshal(expandedData, &config); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("GAS_WEBAPP_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		c.Backend.Token = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		ids, err := ParseAdminIDs(v)
		if err != nil {
			return fmt.Errorf("ADMIN_IDS: %w", err)
		}
		c.Admins.IDs = ids
	}
	if v := os.Getenv("ADMIN_ALERTS_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("ADMIN_ALERTS_CHAT_ID: %w", err)
		}
		c.Admins.AlertsChatID = id
	}
	if v := os.Getenv("TZ"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Address = v
	}
	return nil
}

// ParseAdminIDs accepts ids separated by commas or semicolons.
func ParseAdminIDs(raw string) ([]int64, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	ids := make([]int64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describeField(fe))
		}
	}

	token := c.Telegram.BotToken
	if token != "" && (!strings.Contains(token, ":") || len(token) <= 10) {
		problems = append(problems, "telegram.bot_token has invalid format")
	}

	if c.Bot.DigestTime != "" {
		if _, err := time.Parse("15:04", c.Bot.DigestTime); err != nil {
			problems = append(problems, fmt.Sprintf("bot.digest_time %q must be HH:MM", c.Bot.DigestTime))
		}
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Timezone))
	} else {
		c.location = loc
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func describeField(fe validator.FieldError) string {
	name := map[string]string{
		"BotToken": "telegram.bot_token (BOT_TOKEN)",
		"URL":      "backend.url (GAS_WEBAPP_URL)",
		"Token":    "backend.token (API_TOKEN)",
		"IDs":      "admins.ids (ADMIN_IDS)",
	}[fe.Field()]
	if name == "" {
		name = fe.Namespace()
	}
	switch fe.Tag() {
	case "required", "min":
		return name + " is required"
	default:
		return fmt.Sprintf("%s is invalid (%s)", name, fe.Tag())
	}
}

// Location returns the configured timezone, loading it lazily for configs built in code.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	c.location = loc
	return loc
}

// IsAdmin reports whether userID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "coworkingbot"
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Telegram.UpdateTimeout == 0 {
		c.Telegram.UpdateTimeout = 60
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultBackendTimeout
	}
	if c.Backend.CacheTTL == 0 {
		c.Backend.CacheTTL = DefaultBackendCacheTTL
	}
	if c.Notifications.AggregateWindow == 0 {
		c.Notifications.AggregateWindow = 10 * time.Minute
	}
	if c.Notifications.AggregateEvery == 0 {
		c.Notifications.AggregateEvery = 5
	}
	if c.Notifications.AggregateCapacity == 0 {
		c.Notifications.AggregateCapacity = 512
	}
	if c.Notifications.SendRate == 0 {
		c.Notifications.SendRate = 1
	}
	if c.Notifications.SendBurst == 0 {
		c.Notifications.SendBurst = 3
	}
	if c.Session.TTL == 0 {
		c.Session.TTL = DefaultSessionTTL
	}
	if c.Content.DBPath == "" {
		c.Content.DBPath = "data/content.db"
	}
	if c.Content.CacheTTL == 0 {
		c.Content.CacheTTL = time.Minute
	}
	if c.Content.BackupInterval == 0 {
		c.Content.BackupInterval = 24 * time.Hour
	}
	if c.Exports.Path == "" {
		c.Exports.Path = os.TempDir()
	}

	// Bot defaults
	if c.Bot.RateLimitMessages == 0 {
		c.Bot.RateLimitMessages = 20
	}
	if c.Bot.RateLimitWindow == 0 {
		c.Bot.RateLimitWindow = 60
	}
	if c.Bot.DateSuggestions == 0 {
		c.Bot.DateSuggestions = 7
	}
	if c.Bot.MyBookingsLimit == 0 {
		c.Bot.MyBookingsLimit = 10
	}
}
