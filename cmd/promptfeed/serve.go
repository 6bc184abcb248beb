package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	feed_sdk "github.com/cydxin/prompt-feed-sdk"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var recount bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, swagger UI and the /ws realtime hub",
		Example: `  promptfeed serve -c promptfeed.yaml
  PROMPTFEED_MYSQL_DSN='root:pw@tcp(127.0.0.1:3306)/feed?parseTime=true' promptfeed serve`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("database dsn is empty (database.dsn or PROMPTFEED_MYSQL_DSN)")
			}
			logger := cfg.Logging.NewLogger(nil)

			// 1. 初始化数据库连接
			db, err := gorm.Open(mysql.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
			if err != nil {
				return err
			}
			// 2. Redis：token 和实时推送都依赖它
			var rdb *redis.Client
			if cfg.Redis.Addr != "" {
				rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer rdb.Close()
			}

			engine := feed_sdk.NewEngine(
				feed_sdk.WithDB(db),
				feed_sdk.WithRDB(rdb),
				feed_sdk.WithServiceDebug(cfg.Database.Debug),
				feed_sdk.WithChannelPrefix(cfg.Redis.ChannelPrefix),
				feed_sdk.WithLogger(logger),
				feed_sdk.WithSkipMigrate(cfg.Database.SkipMigrate),
			)
			defer engine.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if _, err := engine.MigrateLegacyNickname(ctx); err != nil {
				log.Printf("MigrateLegacyNickname failed: %v", err)
			}
			if recount {
				n, err := engine.RecountCounters(ctx)
				if err != nil {
					return err
				}
				log.Printf("计数重算完成，更新 %d 行", n)
			}

			// 3. 路由
			r := gin.New()
			r.Use(gin.Recovery())
			r.Use(func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				if c.Request.Method == http.MethodOptions {
					c.AbortWithStatus(http.StatusNoContent)
					return
				}
				c.Next()
			})
			if cfg.Server.Swagger {
				feed_sdk.RegisterSwagger(r, "")
			}
			engine.RegisterRoutes(r.Group("/api/v1"))

			srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
			errCh := make(chan error, 1)
			go func() {
				log.Printf("Feed Server 启动在 %s", cfg.Server.Addr)
				log.Println("WebSocket 地址: ws://HOST/api/v1/ws?token=YOUR_TOKEN")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&recount, "recount", false, "recompute denormalized counters before serving")
	return cmd
}
