package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Config holds the main configuration for the application.
type Config struct {
	Server   Server         `mapstructure:"server"`
	Database Database       `mapstructure:"database"`
	Redis    Redis          `mapstructure:"redis"`
	Email    Email          `mapstructure:"email"`
	Push     Push           `mapstructure:"push"`
	Notify   Notify         `mapstructure:"notify"`
	Reminder Reminder       `mapstructure:"reminder"`
	Retry    retry.Strategy `mapstructure:"retry"`
}

// Server holds HTTP server-related configuration.
type Server struct {
	HTTPPort string `mapstructure:"http_port"` // HTTP port to listen on
}

// Database holds database master and slave configuration.
type Database struct {
	Master DatabaseNode   `mapstructure:"master"`
	Slaves []DatabaseNode `mapstructure:"slaves"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DatabaseNode holds connection parameters for a single database node.
type DatabaseNode struct {
	Host    string `mapstructure:"host"`
	Port    string `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Pass    string `mapstructure:"pass"`
	Name    string `mapstructure:"name"`
	SSLMode string `mapstructure:"ssl_mode"`
}

// Redis holds Redis connection parameters for the dedup cache.
type Redis struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Email holds delivery configuration for all supported email providers.
// Provider selects one of "resend", "mailgun" or "smtp"; empty or
// unrecognized values fall back to resend.
type Email struct {
	Provider string `mapstructure:"provider"`
	From     string `mapstructure:"from"`
	ReplyTo  string `mapstructure:"reply_to"`

	Resend  Resend  `mapstructure:"resend"`
	Mailgun Mailgun `mapstructure:"mailgun"`
	SMTP    SMTP    `mapstructure:"smtp"`
}

// Resend holds Resend HTTP API credentials.
type Resend struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

// Mailgun holds Mailgun HTTP API credentials.
type Mailgun struct {
	APIKey string `mapstructure:"api_key"`
	Domain string `mapstructure:"domain"`
	APIURL string `mapstructure:"api_url"`
}

// SMTP holds plain SMTP relay credentials.
type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Push holds web push (VAPID) configuration. All three key values must be set
// for push delivery to be attempted at all.
type Push struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subject         string `mapstructure:"subject"`
	TTL             int    `mapstructure:"ttl"`
}

// Notify holds dispatch-wide settings.
type Notify struct {
	Zone        string        `mapstructure:"zone"`         // IANA civil zone, e.g. Europe/Oslo
	BaseURL     string        `mapstructure:"base_url"`     // site base URL for push click-through links
	SendTimeout time.Duration `mapstructure:"send_timeout"` // per-recipient provider call timeout
}

// Reminder holds the scheduler entry point settings.
type Reminder struct {
	Hour       int    `mapstructure:"hour"`        // civil hour-of-day the tick fires at
	CronSecret string `mapstructure:"cron_secret"` // bearer secret for the HTTP cron endpoint
	Schedule   string `mapstructure:"schedule"`    // robfig/cron spec for the in-process ticker
	Internal   bool   `mapstructure:"internal"`    // run the in-process ticker
}

// DSN returns the PostgreSQL DSN string for connecting to this database node.
func (n DatabaseNode) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		n.User, n.Pass, n.Host, n.Port, n.Name, n.SSLMode,
	)
}

// mustBindEnv binds critical environment variables to Viper keys.
//
// It panics if any environment variable cannot be bound.
func mustBindEnv() {
	bindings := map[string]string{
		"database.master.host": "DB_HOST",
		"database.master.port": "DB_PORT",
		"database.master.user": "DB_USER",
		"database.master.pass": "DB_PASSWORD",
		"database.master.name": "DB_NAME",

		"redis.address":  "REDIS_ADDRESS",
		"redis.password": "REDIS_PASSWORD",
		"redis.database": "REDIS_DATABASE",

		"email.provider":        "EMAIL_PROVIDER",
		"email.from":            "EMAIL_FROM",
		"email.reply_to":        "EMAIL_REPLY_TO",
		"email.resend.api_key":  "RESEND_API_KEY",
		"email.resend.api_url":  "RESEND_API_URL",
		"email.mailgun.api_key": "MAILGUN_API_KEY",
		"email.mailgun.domain":  "MAILGUN_DOMAIN",
		"email.mailgun.api_url": "MAILGUN_API_URL",
		"email.smtp.host":       "SMTP_HOST",
		"email.smtp.port":       "SMTP_PORT",
		"email.smtp.username":   "SMTP_USER",
		"email.smtp.password":   "SMTP_PASS",

		"push.vapid_public_key":  "VAPID_PUBLIC_KEY",
		"push.vapid_private_key": "VAPID_PRIVATE_KEY",
		"push.subject":           "VAPID_SUBJECT",

		"reminder.cron_secret": "CRON_SECRET",
	}

	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			zlog.Logger.Panic().Err(err).Msgf("failed to bind env %s", env)
		}
	}
}

// Must loads and validates the configuration from file and environment variables.
//
// It panics if configuration cannot be read or unmarshalled.
func Must() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zlog.Logger.Panic().Err(err).Msg("failed to read config")
	}

	mustBindEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		zlog.Logger.Panic().Err(err).Msgf("failed to unmarshal config: %v", err)
	}

	return &cfg
}
