package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cydxin/prompt-feed-sdk/config"
)

// rootOptions 所有子命令共用的参数
type rootOptions struct {
	ConfigPath string
	EnvFile    string
}

func (o *rootOptions) load() (*config.Config, error) {
	if err := config.LoadEnvFile(o.EnvFile); err != nil {
		return nil, err
	}
	return config.Load(o.ConfigPath)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "promptfeed",
		Short: "Prompt feed server and realtime feed watcher",
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before the config")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
