package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cydxin/prompt-feed-sdk/client"
	"github.com/cydxin/prompt-feed-sdk/feedsync"
)

func newWatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "watch",
		Short:        "Follow a server's feed through the reconciliation engine and log every change",
		Example:      `  PROMPTFEED_TOKEN=... PROMPTFEED_VIEWER_ID=9 promptfeed watch`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger := cfg.Logging.NewLogger(cmd.ErrOrStderr())

			remote := client.NewRemote(cfg.Client.BaseURL,
				client.WithToken(cfg.Client.Token),
				client.WithLogger(logger),
			)
			defer remote.Close()

			engine := feedsync.NewEngine(remote,
				feedsync.WithFoldDelay(cfg.Feed.FoldDelay),
				feedsync.WithWriteTimeout(cfg.Feed.WriteTimeout),
				feedsync.WithLogger(logger),
			)
			defer engine.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			engine.OnChange(func(version uint64) {
				items := engine.Items()
				fmt.Fprintf(out, "v%d: %d items\n", version, len(items))
				for _, it := range items {
					fmt.Fprintf(out, "  %s likes=%d comments=%d bookmarks=%d liked=%t bookmarked=%t\n",
						it.ID, it.LikeCount, it.CommentCount, it.BookmarkCount, it.IsLiked, it.IsBookmarked)
				}
			})
			if err := engine.Start(ctx, feedsync.Author{ID: cfg.Client.ViewerID}); err != nil {
				return err
			}
			<-ctx.Done()
			logger.Info("watch stopped", "stats", fmt.Sprintf("%+v", engine.Stats()))
			return nil
		},
	}
}
