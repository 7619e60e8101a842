// Command console is a terminal and HTTP front end for the waiver knowledge
// backend: ask questions, inspect the query plan, browse and upload
// documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/config"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/logging"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/session"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/storage"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/tui"
)

var (
	envFile string
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Query console for the waiver knowledge backend",
	Long: `Ask natural-language questions about waiver documents and see the answer,
its ranked sources and the relationship graph behind it. Run without a
subcommand for the interactive console.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(logging.Options{
			Level:   cfg.LogLevel,
			File:    cfg.LogFile,
			Verbose: verbose,
			// The interactive console owns the terminal.
			Quiet: cmd == cmd.Root(),
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, cache := newClient(ctx)
		defer cache.Close()

		ctrl := session.NewController(client, logger)
		p := tea.NewProgram(tui.New(ctx, ctrl), tea.WithAltScreen(), tea.WithContext(ctx))
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(askCmd, explainCmd, uploadCmd, documentsCmd, serveCmd)
}

// newClient builds the backend client, with the Redis document cache when
// one is configured. The returned cache may be nil.
func newClient(ctx context.Context) (*api.Client, *storage.RedisCache) {
	var cache *storage.RedisCache
	acfg := api.Config{
		BaseURL:  cfg.BackendURL,
		MediaURL: cfg.MediaURL,
		Timeout:  cfg.RequestTimeout,
		Logger:   logger,
	}
	if cfg.CacheEnabled() {
		cache = storage.NewRedisCache(ctx, storage.RedisOptions{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.DocumentsTTL,
		}, logger)
		acfg.Documents = cache
	}
	return api.New(acfg), cache
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
