package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/store"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	var root string
	var noStore bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Scan the export root, index new exports and forward them to the document store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if root == "" {
				root = cfg.ExportRoot
			}
			log := logger.NewLogger(cfg.LogLevel)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			opts := index.Options{Log: log}
			if cfg.Mongo.Enabled() && !noStore {
				mongo, err := store.Dial(ctx, cfg.Mongo, log)
				if err != nil {
					return fmt.Errorf("document store: %w", err)
				}
				defer mongo.Close(context.Background())
				opts.Sink = mongo
			}

			fmt.Fprintf(os.Stderr, "Scanning %s...\n", root)
			stats, err := index.IndexAll(ctx, db, root, opts)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Export directory to scan (default: export_root from config)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Only update the local index")

	return cmd
}

// refreshIndex updates the local index before a read command; failures
// are logged and the command continues with what is already indexed.
func refreshIndex(ctx context.Context, cfg *config.Config, db *index.DB) {
	log := logger.NewLogger(cfg.LogLevel)
	if _, err := index.IndexAll(ctx, db, cfg.ExportRoot, index.Options{Log: log}); err != nil {
		log.Warn("refresh index", "error", err)
	}
}
