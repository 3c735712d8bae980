package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `mapstructure:"mode"`
	HTTPAddr string `mapstructure:"http_addr"`

	DBDriver string `mapstructure:"db_driver"`
	DBDSN    string `mapstructure:"db_dsn"`

	EnableLocalAuth bool   `mapstructure:"enable_local_auth"`
	AuthSecret      string `mapstructure:"auth_secret"`
	TokenTTLHours   int    `mapstructure:"token_ttl_hours"`

	// Seeded on startup when set, for offline installs.
	AdminUser     string `mapstructure:"admin_user"`
	AdminPassHash string `mapstructure:"admin_pass_hash"` // bcrypt

	CORSOriginsOnline  []string `mapstructure:"cors_origins_online"`
	CORSOriginsOffline []string `mapstructure:"cors_origins_offline"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	FillBlankPolicy string `mapstructure:"fill_blank_policy"`

	// Per-user limit on attempt start/submit; RateLimitRPS <= 0 disables it.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	SiteID string `mapstructure:"site_id"`
}

// CORSOrigins returns the origin list for the configured mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeOffline))
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_dsn", "")
	v.SetDefault("enable_local_auth", true)
	v.SetDefault("auth_secret", "dev-secret-change-me")
	v.SetDefault("token_ttl_hours", 8)
	v.SetDefault("admin_user", "admin")
	v.SetDefault("admin_pass_hash", "")
	v.SetDefault("cors_origins_online", "")
	v.SetDefault("cors_origins_offline", "http://localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("fill_blank_policy", "all_or_nothing")
	v.SetDefault("rate_limit_rps", 5)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("site_id", "quizd")
}

// Load reads config.yaml from dir when present and applies QUIZD_* env
// overrides on top of the defaults. An empty dir skips the file.
func Load(dir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUIZD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if dir != "" {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORSOriginsOnline = cleanList(cfg.CORSOriginsOnline)
	cfg.CORSOriginsOffline = cleanList(cfg.CORSOriginsOffline)

	if cfg.Mode != ModeOffline && cfg.Mode != ModeOnline {
		return Config{}, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
	if cfg.Mode == ModeOnline && len(cfg.AuthSecret) < 32 {
		return Config{}, fmt.Errorf("auth secret is too short (%d chars), online mode needs at least 32", len(cfg.AuthSecret))
	}
	return cfg, nil
}

// cleanList trims entries; env values arrive as one "a, b" string split on commas.
func cleanList(in []string) []string {
	out := []string{}
	for _, e := range in {
		for _, p := range strings.Split(e, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
