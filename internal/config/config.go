// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/patrol-crawler/internal/schedule"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Schedule ScheduleConfig `mapstructure:"schedule"`
	DB       DBConfig       `mapstructure:"db"`
	Identity IdentityConfig `mapstructure:"identity"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ScheduleConfig describes the active window and cadence.
type ScheduleConfig struct {
	StartTime        string `mapstructure:"start_time"`
	EndTime          string `mapstructure:"end_time"`
	Weekdays         string `mapstructure:"weekdays"`
	EverySeconds     int    `mapstructure:"every_seconds"`
	SkipDelaySeconds int    `mapstructure:"skip_delay_seconds"`
}

// DBConfig controls access to the Postgres database.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	MaxConns           int    `mapstructure:"max_conns"`
	MinConns           int    `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// IdentityConfig lists the rotating proxies and user agents. Both optional;
// an empty user-agent list falls back to the built-in pool, an empty proxy
// list means direct fetches.
type IdentityConfig struct {
	Proxies    []string `mapstructure:"proxies"`
	UserAgents []string `mapstructure:"user_agents"`
}

// FetchConfig bounds the dispatched fetches.
type FetchConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ServerConfig controls the ops HTTP server (/metrics, /healthz).
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PATROL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schedule.start_time", "00:00:00")
	v.SetDefault("schedule.end_time", "23:59:59")
	v.SetDefault("schedule.weekdays", "*")
	v.SetDefault("schedule.every_seconds", 60)
	v.SetDefault("schedule.skip_delay_seconds", 1)
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("server.port", 9090)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if _, err := c.Window(); err != nil {
		return err
	}
	if c.Schedule.EverySeconds <= 0 {
		return fmt.Errorf("schedule.every_seconds must be > 0")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Window converts the schedule section into a schedule.Window.
func (c Config) Window() (schedule.Window, error) {
	start, err := schedule.ParseTimeOfDay(c.Schedule.StartTime)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("schedule.start_time: %w", err)
	}
	end, err := schedule.ParseTimeOfDay(c.Schedule.EndTime)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("schedule.end_time: %w", err)
	}
	days, err := schedule.ParseWeekdays(c.Schedule.Weekdays)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("schedule.weekdays: %w", err)
	}
	return schedule.Window{
		Start:    start,
		End:      end,
		Weekdays: days,
		Every:    time.Duration(c.Schedule.EverySeconds) * time.Second,
	}, nil
}

// SkipDelay returns the post-skip re-arm delay.
func (c Config) SkipDelay() time.Duration {
	return time.Duration(c.Schedule.SkipDelaySeconds) * time.Second
}

// FetchTimeout returns the per-fetch budget.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// MaxConnLifetime returns the pool connection lifetime.
func (c Config) MaxConnLifetime() time.Duration {
	return time.Duration(c.DB.MaxConnLifetimeMin) * time.Minute
}
