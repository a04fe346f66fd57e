package main

import (
	"context"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/search"
	"github.com/Zuo-Peng/chatlens/internal/tui"
	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var importKey, user, since string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all messages, newest first",
		Long:  `Opens a TUI panel showing all indexed messages sorted by date (newest first). Type to filter by message text or sender.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			refreshIndex(context.Background(), cfg, db)

			return tui.RunList(db, search.Options{
				Import: importKey,
				User:   user,
				Since:  since,
				Limit:  limit,
			})
		},
	}

	cmd.Flags().StringVar(&importKey, "import", "", "Only list this import")
	cmd.Flags().StringVar(&user, "user", "", "Only messages from this sender")
	cmd.Flags().StringVar(&since, "since", "", "Only messages on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results (0 = no limit)")

	return cmd
}
