package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
	DB          DBConfig          `mapstructure:"db"`
	Feed        FeedConfig        `mapstructure:"feed"`
	Tracker     TrackerConfig     `mapstructure:"tracker"`
	Predictions PredictionsConfig `mapstructure:"predictions"`
	Ratings     RatingsConfig     `mapstructure:"ratings"`
	Snapshots   SnapshotsConfig   `mapstructure:"snapshots"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type FeedConfig struct {
	NegotiateURL     string             `mapstructure:"negotiate_url"`
	APIKey           string             `mapstructure:"api_key"`
	HandshakeTimeout time.Duration      `mapstructure:"handshake_timeout"`
	ReadTimeout      time.Duration      `mapstructure:"read_timeout"`
	Subscriptions    []SubscriptionSpec `mapstructure:"subscriptions"`
}

type SubscriptionSpec struct {
	Hub    string `mapstructure:"hub"`
	Method string `mapstructure:"method"`
	League string `mapstructure:"league"`
}

type TrackerConfig struct {
	SteamThreshold       float64       `mapstructure:"steam_threshold"`
	ValueEdgeThreshold   float64       `mapstructure:"value_edge_threshold"`
	ReconnectBackoff     time.Duration `mapstructure:"reconnect_backoff"`
	ReconnectBackoffMax  time.Duration `mapstructure:"reconnect_backoff_max"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	// SessionDuration bounds one run; zero means run until cancelled.
	SessionDuration time.Duration `mapstructure:"session_duration"`
}

type PredictionsConfig struct {
	// Path to the offline model's CSV prediction file. When empty and a
	// database is configured, predictions load from the predictions table.
	Path string `mapstructure:"path"`
}

type RatingsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Season  int    `mapstructure:"season"`
	// Schedule is a cron spec; the source refreshes daily in the morning.
	Schedule string        `mapstructure:"schedule"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Retries  int           `mapstructure:"retries"`
}

type SnapshotsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
	Retention     time.Duration `mapstructure:"retention"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("feed.handshake_timeout", "10s")
	v.SetDefault("feed.read_timeout", "0s")

	v.SetDefault("tracker.steam_threshold", 1.0)
	v.SetDefault("tracker.value_edge_threshold", 0.05)
	v.SetDefault("tracker.reconnect_backoff", "1s")
	v.SetDefault("tracker.reconnect_backoff_max", "30s")
	v.SetDefault("tracker.max_reconnect_attempts", 5)
	v.SetDefault("tracker.session_duration", "0s")

	v.SetDefault("ratings.enabled", false)
	v.SetDefault("ratings.base_url", "https://barttorvik.com")
	v.SetDefault("ratings.schedule", "0 0 6 * * *")
	v.SetDefault("ratings.timeout", "30s")
	v.SetDefault("ratings.retries", 5)

	v.SetDefault("snapshots.enabled", false)
	v.SetDefault("snapshots.flush_interval", "1m")
	v.SetDefault("snapshots.retention", "720h")

	if !envOnly {
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
