package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/garagekb/garagekb/internal/kb"
	"github.com/garagekb/garagekb/internal/markdown"
	"github.com/garagekb/garagekb/internal/search"
	"github.com/garagekb/garagekb/internal/utils"
	"github.com/garagekb/garagekb/internal/web"
)

var serveCache bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the knowledge base HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := activeConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("cache") {
			c.CacheEnabled = serveCache
		}

		logger, err := newLogger(c.Debug)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		if err := utils.EnsureDir(c.DataDir); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		store, err := kb.NewStore(c, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		rewriter, err := markdown.NewRewriter(c.SharePattern)
		if err != nil {
			return err
		}
		srv, err := web.New(c, store, search.NewEngine(c.PreviewRadius), markdown.NewRenderer(), rewriter, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(c.Addr()) }()
		fmt.Printf("✓ Serving %s on http://localhost:%d\n", c.DataDir, c.Port)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		fmt.Println("✓ Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveCache, "cache", false, "cache scans between requests, invalidated on filesystem changes")
}
