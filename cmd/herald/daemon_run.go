package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"herald/internal/daemon"
	"herald/internal/daemonctl"
	"herald/internal/logging"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon process management",
	}
	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	var detach bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the notification daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			if detach {
				scope, err := ctx.ensureScope()
				if err != nil {
					return err
				}
				pid, err := daemonctl.StartDetached(scope, ctx.childArgs())
				if err != nil {
					return err
				}
				if err := daemonctl.WaitForReady(scope, 10*time.Second); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", pid)
				return nil
			}
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}

	cmd.Flags().BoolVar(&detach, "detach", false, "Launch the daemon in the background and return")
	return cmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	scope := cfg.Scope()
	if err := scope.EnsureDir(); err != nil {
		return err
	}

	// Detached daemons have stdout on /dev/null; the scope log file keeps
	// the record either way.
	logger, err := logging.New(logging.Options{
		Level:            cfg.Daemon.LogLevel,
		Format:           cfg.Daemon.LogFormat,
		OutputPaths:      []string{"stdout", scope.LogPath()},
		ErrorOutputPaths: []string{"stderr", scope.LogPath()},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	return d.Run(cmdCtx)
}
