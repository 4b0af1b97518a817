package main

import (
	"bulletin/config"
	"bulletin/utils"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var (
	cfg *config.ServerConfig

	rootCmd = &cobra.Command{
		Use:               "bulletin",
		Short:             "bulletin board backend",
		Long:              "Posts, likes and comments over a remote key-value backend with an in-memory fallback.",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE:  runServe,
	}
	workerCmd = &cobra.Command{
		Use:   "worker",
		Short: "Run the background worker that purges deleted comments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return CreateWorker(cmd.Context(), cfg)
		},
	}
)

func init() {
	config.RegisterFlags(rootCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := utils.LoadEnvFiles(); err != nil {
		return err
	}
	var err error
	cfg, err = config.Load(cmd)
	if err != nil {
		return err
	}
	_, err = utils.InitLogger(os.Stdout, cfg.LogLevel)
	return err
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := CreateServer(ctx, cfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Start serving", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, cleanup(shutdownCtx))
	})
	return g.Wait()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
