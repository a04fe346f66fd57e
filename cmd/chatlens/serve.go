package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Zuo-Peng/chatlens/internal/config"
	"github.com/Zuo-Peng/chatlens/internal/index"
	"github.com/Zuo-Peng/chatlens/internal/logger"
	"github.com/Zuo-Peng/chatlens/internal/server"
	"github.com/Zuo-Peng/chatlens/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve imports, records, search and stats over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			log := logger.NewLogger(cfg.LogLevel)

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			gin.SetMode(gin.ReleaseMode)
			srv := &server.Server{DB: db, Log: log}
			if cfg.Mongo.Enabled() {
				srv.OpenSink = mongoOpener(cfg.Mongo, log)
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("serve: %w", err)
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: server.addr from config)")

	return cmd
}

// mongoOpener dials a fresh session per upload so no connection outlives
// the request that needed it.
func mongoOpener(cfg config.MongoConfig, log logger.Logger) server.SinkOpener {
	return func(ctx context.Context) (store.Sink, func(), error) {
		mongo, err := store.Dial(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return mongo, func() { _ = mongo.Close(context.Background()) }, nil
	}
}
