package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/scan"
	"github.com/Zuo-Peng/chatlens/internal/store"
	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify export root, DB, FTS5 and document store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			fmt.Println("=== Export root ===")
			checkDir("Exports", cfg.ExportRoot)

			fmt.Println("\n=== File Scan ===")
			files, err := scan.ScanRoot(cfg.ExportRoot)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  Export files: %d\n", len(files))
			}

			checkMongo(cmd.Context(), cfg)

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatlens import' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			importCount, err := db.ImportCount()
			if err != nil {
				return fmt.Errorf("count imports: %w", err)
			}

			recordCount, err := db.RecordCount()
			if err != nil {
				return fmt.Errorf("count records: %w", err)
			}

			fmt.Printf("  Imports: %d\n", importCount)
			fmt.Printf("  Records: %d\n", recordCount)

			fmt.Println("\n=== FTS5 ===")
			ftsCount, err := db.FTSCount()
			if err != nil {
				fmt.Printf("  FTS5 error: %v\n", err)
			} else {
				fmt.Printf("  FTS5 entries: %d\n", ftsCount)
				if ftsCount == recordCount {
					fmt.Println("  Status: OK (synced)")
				} else {
					fmt.Printf("  Status: MISMATCH (records=%d, fts=%d)\n", recordCount, ftsCount)
				}
			}

			if info, err := os.Stat(cfg.DBPath); err == nil {
				sizeMB := float64(info.Size()) / 1024 / 1024
				fmt.Printf("\n=== DB Size: %.1f MB ===\n", sizeMB)
			}

			return nil
		},
	}
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

func checkMongo(ctx context.Context, cfg *config.Config) {
	fmt.Println("\n=== Document store ===")
	if !cfg.Mongo.Enabled() {
		fmt.Println("  Status: disabled (set mongo.uri or CHATLENS_MONGO_URI)")
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	mongo, err := store.Dial(ctx, cfg.Mongo, logger.NewLogger(cfg.LogLevel))
	if err != nil {
		fmt.Printf("  Status: UNREACHABLE (%v)\n", err)
		return
	}
	defer mongo.Close(context.Background())
	fmt.Printf("  Database: %s (OK)\n", cfg.Mongo.Database)
}
