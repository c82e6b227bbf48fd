package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pedidobot/internal/daemon"
	"pedidobot/internal/logging"
	"pedidobot/internal/preflight"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook gateway in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, closeLog, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer closeLog() //nolint:errcheck

			for _, failed := range preflight.Failed(preflight.RunAll(signalCtx, cfg)) {
				logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
					logging.String("check", failed.Name),
					logging.Hint(failed.Detail),
				)
			}

			d, err := daemon.New(cfg, logger)
			if err != nil {
				logger.Error("create daemon", logging.Error(err))
				return err
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				logger.Error("daemon start", logging.Error(err))
				return err
			}

			<-signalCtx.Done()
			logger.Info("pedidobot shutting down")
			return nil
		},
	}
}
