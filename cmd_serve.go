package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"compensation-engine/internal/engine"
	"compensation-engine/internal/handler"
	"compensation-engine/internal/paramtable"
)

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				cfg.Server.Port = port
			}
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides config and PORT)")
	return cmd
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	sources, err := cfg.Sources()
	if err != nil {
		return err
	}
	tpl, err := cfg.Template()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := paramtable.NewStore(logger)
	if err := store.Load(ctx, sources...); err != nil {
		return err
	}

	if cfg.Tables.Watch {
		w, err := paramtable.NewWatcher(store, sources, cfg.GetDebounce(), logger)
		if err != nil {
			return fmt.Errorf("table watcher: %w", err)
		}
		w.Start(ctx)
		defer w.Stop()
	}

	srv := handler.New(engine.New(store, logger), store, sources, tpl, logger)
	server := &fasthttp.Server{
		Handler:     srv.Handle,
		Name:        "compensation-engine",
		ReadTimeout: cfg.GetReadTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("compensation engine starting", zap.String("port", cfg.Server.Port))
		errCh <- server.ListenAndServe(":" + cfg.Server.Port)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return server.Shutdown()
}
