package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cubelog/cubelog/internal/api"
	"github.com/cubelog/cubelog/internal/config"
	"github.com/cubelog/cubelog/internal/ranking"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)

	logger, err := newLogger()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	rc := ranking.New(rankingOptions(fileCfg, logger))
	srv := api.New(st, rc, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, serveAddr)
	})
	g.Go(func() error {
		// Ranking settings apply live; address and storage changes need a restart.
		err := config.Watch(ctx, configPath(), logger, func(cfg config.FileConfig) {
			rc.Configure(rankingOptions(cfg, logger))
		})
		if err != nil {
			logger.Warn("config hot reload disabled", "err", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
