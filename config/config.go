package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cydxin/prompt-feed-sdk/feedsync"
)

// EnvPrefix 环境变量覆盖的前缀
const EnvPrefix = "PROMPTFEED_"

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Redis    Redis    `yaml:"redis"`
	Client   Client   `yaml:"client"`
	Feed     Feed     `yaml:"feed"`
	Logging  Logging  `yaml:"logging"`
}

type Server struct {
	Addr    string `yaml:"addr"`
	Swagger bool   `yaml:"swagger"`
}

type Database struct {
	DSN         string `yaml:"dsn"`
	Debug       bool   `yaml:"debug"`
	SkipMigrate bool   `yaml:"skip_migrate"`
}

type Redis struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

// Client watch 命令连接的服务端
type Client struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	// ViewerID token 对应的用户，空为匿名
	ViewerID string `yaml:"viewer_id"`
}

// Feed 客户端引擎参数
type Feed struct {
	FoldDelay    time.Duration `yaml:"fold_delay"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type Logging struct {
	Level  string `yaml:"level"`  // debug/info/warn/error
	Format string `yaml:"format"` // text/json
}

func Default() *Config {
	return &Config{
		Server: Server{Addr: ":6789", Swagger: true},
		Redis:  Redis{Addr: "127.0.0.1:6379"},
		Client: Client{BaseURL: "http://127.0.0.1:6789/api/v1"},
		Feed: Feed{
			FoldDelay:    feedsync.DefaultFoldDelay,
			WriteTimeout: feedsync.DefaultWriteTimeout,
		},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load 读取 YAML 配置；path 为空时只用默认值。之后应用 PROMPTFEED_* 环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	applyDefaults(cfg)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadEnvFile 把 .env 载入进程环境，文件不存在不算错误，已有的变量不覆盖
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyDefaults YAML 里显式写成空值的字段补回默认
func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = d.Client.BaseURL
	}
	if cfg.Feed.FoldDelay == 0 {
		cfg.Feed.FoldDelay = d.Feed.FoldDelay
	}
	if cfg.Feed.WriteTimeout == 0 {
		cfg.Feed.WriteTimeout = d.Feed.WriteTimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = d.Logging.Format
	}
}

func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"ADDR":           &cfg.Server.Addr,
		"MYSQL_DSN":      &cfg.Database.DSN,
		"REDIS_ADDR":     &cfg.Redis.Addr,
		"REDIS_PASSWORD": &cfg.Redis.Password,
		"CHANNEL_PREFIX": &cfg.Redis.ChannelPrefix,
		"BASE_URL":       &cfg.Client.BaseURL,
		"TOKEN":          &cfg.Client.Token,
		"VIEWER_ID":      &cfg.Client.ViewerID,
		"LOG_LEVEL":      &cfg.Logging.Level,
		"LOG_FORMAT":     &cfg.Logging.Format,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", EnvPrefix, err)
		}
		cfg.Redis.DB = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "FOLD_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sFOLD_DELAY: %w", EnvPrefix, err)
		}
		cfg.Feed.FoldDelay = d
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DB_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDB_DEBUG: %w", EnvPrefix, err)
		}
		cfg.Database.Debug = b
	}
	return nil
}

func Validate(cfg *Config) error {
	if cfg.Feed.FoldDelay < 0 {
		return errors.New("feed.fold_delay must not be negative")
	}
	if cfg.Feed.WriteTimeout < 0 {
		return errors.New("feed.write_timeout must not be negative")
	}
	if cfg.Redis.DB < 0 {
		return errors.New("redis.db must not be negative")
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q: want text or json", cfg.Logging.Format)
	}
	return nil
}

// SlogLevel 未知级别按 info
func (l Logging) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger 按配置创建 text / json 的 slog 日志，时间格式 RFC3339
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level: l.SlogLevel(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
	var h slog.Handler
	if strings.ToLower(l.Format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}
