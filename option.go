package feed_sdk

import (
	"log/slog"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type ServiceConfig struct {
	// Debug 打印 SQL
	Debug bool
}

type Config struct {
	DB  *gorm.DB
	RDB *redis.Client

	// ChannelPrefix Redis 频道前缀，默认 realtime.DefaultChannelPrefix
	ChannelPrefix string
	Service       ServiceConfig
	Logger        *slog.Logger

	// SkipMigrate 为 true 时 NewEngine 不自动建表
	SkipMigrate bool
}

type Option func(*Config)

func WithDB(db *gorm.DB) Option {
	return func(c *Config) {
		c.DB = db
	}
}

func WithRDB(RDB *redis.Client) Option {
	return func(c *Config) {
		c.RDB = RDB
	}
}

func WithServiceDebug(debug bool) Option {
	return func(c *Config) {
		c.Service.Debug = debug
	}
}

// WithChannelPrefix 多个环境共用一个 Redis 时用来隔离频道
func WithChannelPrefix(prefix string) Option {
	return func(c *Config) {
		c.ChannelPrefix = prefix
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func WithSkipMigrate(skip bool) Option {
	return func(c *Config) {
		c.SkipMigrate = skip
	}
}
