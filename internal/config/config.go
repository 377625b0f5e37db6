package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v4"
)

// Supported retrieval protocols.
const (
	ProtocolPOP3 = "pop3"
	ProtocolIMAP = "imap"
)

// Config is the process-wide gateway configuration. It is loaded once at
// startup and treated as immutable afterwards; sessions receive it by
// reference and never mutate it.
type Config struct {
	LogLevel string  `mapstructure:"log_level" yaml:"log_level"`
	User     string  `mapstructure:"user" yaml:"user"`
	Password string  `mapstructure:"password" yaml:"password"`
	Mailbox  Mailbox `mapstructure:"mailbox" yaml:"mailbox"`
	SMTP     SMTP    `mapstructure:"smtp" yaml:"smtp"`
}

// Mailbox holds the retrieval server configuration.
type Mailbox struct {
	Protocol           string `mapstructure:"protocol" yaml:"protocol"`
	Host               string `mapstructure:"host" yaml:"host"`
	Port               int    `mapstructure:"port" yaml:"port"`
	TLS                bool   `mapstructure:"tls" yaml:"tls"`
	Folder             string `mapstructure:"folder" yaml:"folder"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// SMTP holds the delivery server configuration.
type SMTP struct {
	Host               string `mapstructure:"host" yaml:"host"`
	Port               int    `mapstructure:"port" yaml:"port"`
	UseSSL             bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// Default returns the configuration before any file or environment input.
func Default() Config {
	return Config{
		LogLevel: "info",
		Mailbox: Mailbox{
			Protocol: ProtocolPOP3,
			TLS:      true,
			Folder:   "INBOX",
		},
	}
}

// Load reads the optional YAML configuration file at path and applies
// environment overrides. Ports left unset get protocol-dependent defaults:
// POP3 995, IMAP 993, SMTP 465 with use_ssl or 587 without.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MAILGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyPortDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// bindLegacyEnv keeps the variable names older deployments used working
// alongside the MAILGATE_* scheme.
func bindLegacyEnv(v *viper.Viper) {
	v.BindEnv("user", "MAILGATE_USER", "EMAIL_USER")
	v.BindEnv("password", "MAILGATE_PASSWORD", "EMAIL_PASS")
	v.BindEnv("mailbox.host", "MAILGATE_MAILBOX_HOST", "POP3_SERVER")
	v.BindEnv("mailbox.port", "MAILGATE_MAILBOX_PORT", "POP3_PORT")
	v.BindEnv("smtp.host", "MAILGATE_SMTP_HOST", "SMTP_SERVER")
	v.BindEnv("smtp.port", "MAILGATE_SMTP_PORT", "SMTP_PORT")
	v.BindEnv("smtp.use_ssl", "MAILGATE_SMTP_USE_SSL", "SMTP_USE_SSL")
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("user", cfg.User)
	v.SetDefault("password", cfg.Password)

	v.SetDefault("mailbox.protocol", cfg.Mailbox.Protocol)
	v.SetDefault("mailbox.host", cfg.Mailbox.Host)
	v.SetDefault("mailbox.port", cfg.Mailbox.Port)
	v.SetDefault("mailbox.tls", cfg.Mailbox.TLS)
	v.SetDefault("mailbox.folder", cfg.Mailbox.Folder)
	v.SetDefault("mailbox.insecure_skip_verify", cfg.Mailbox.InsecureSkipVerify)

	v.SetDefault("smtp.host", cfg.SMTP.Host)
	v.SetDefault("smtp.port", cfg.SMTP.Port)
	v.SetDefault("smtp.use_ssl", cfg.SMTP.UseSSL)
	v.SetDefault("smtp.insecure_skip_verify", cfg.SMTP.InsecureSkipVerify)
}

func applyPortDefaults(cfg *Config) {
	if cfg.Mailbox.Port == 0 {
		if cfg.Mailbox.Protocol == ProtocolIMAP {
			cfg.Mailbox.Port = 993
		} else {
			cfg.Mailbox.Port = 995
		}
	}
	if cfg.SMTP.Port == 0 {
		if cfg.SMTP.UseSSL {
			cfg.SMTP.Port = 465
		} else {
			cfg.SMTP.Port = 587
		}
	}
}

func (c *Config) validate() error {
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if c.Password == "" {
		return fmt.Errorf("password is required")
	}
	if c.Mailbox.Protocol != ProtocolPOP3 && c.Mailbox.Protocol != ProtocolIMAP {
		return fmt.Errorf("mailbox.protocol must be %s or %s", ProtocolPOP3, ProtocolIMAP)
	}
	if c.Mailbox.Host == "" {
		return fmt.Errorf("mailbox.host is required")
	}
	if c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required")
	}
	return nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Redact returns a copy of cfg safe to write or log.
func Redact(cfg Config) Config {
	if cfg.Password != "" {
		cfg.Password = "****"
	}
	return cfg
}
