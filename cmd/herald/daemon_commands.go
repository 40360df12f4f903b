package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"herald/internal/daemonctl"
	"herald/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the notification daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			scope, err := ctx.ensureScope()
			if err != nil {
				return err
			}
			started, err := daemonctl.EnsureStarted(scope, ctx.childArgs(), 10*time.Second)
			if err != nil {
				return err
			}
			if started {
				fmt.Fprintln(stdout, "Daemon started")
			} else {
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the notification daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			scope, err := ctx.ensureScope()
			if err != nil {
				return err
			}
			err = daemonctl.Stop(scope, 5*time.Second)
			if errors.Is(err, daemonctl.ErrNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check daemon liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ctx.ensureScope()
			if err != nil {
				return err
			}
			if err := daemonctl.Ping(scope); err != nil {
				return wrapDialError(err, scope.SocketPath())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "pong")
			return nil
		},
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to reload its configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.Reload(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Reload requested")
				return nil
			})
		},
	}

	statusCmd := newStatusCommand(ctx)

	return []*cobra.Command{startCmd, stopCmd, statusCmd, pingCmd, reloadCmd}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ctx.ensureScope()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			info := daemonctl.Probe(scope)

			fmt.Fprintln(stdout, sectionHeader("Daemon", colorize))
			if info.Running {
				fmt.Fprintln(stdout, statusLine("Process", statusOK, fmt.Sprintf("running (pid %d)", info.PID), colorize))
			} else {
				fmt.Fprintln(stdout, statusLine("Process", statusWarn, "not running", colorize))
			}
			fmt.Fprintln(stdout, statusLine("Socket", statusInfo, info.Socket, colorize))

			if info.Running {
				err := ctx.withClient(func(client *ipc.Client) error {
					status, err := client.Status()
					if err != nil {
						return err
					}
					uptime := time.Duration(status.UptimeSeconds) * time.Second
					fmt.Fprintln(stdout, statusLine("Uptime", statusInfo, uptime.String(), colorize))
					fmt.Fprintln(stdout, statusLine("Queue", statusInfo, fmt.Sprintf("%d pending", status.QueueSize), colorize))
					return nil
				})
				if err != nil {
					fmt.Fprintln(stdout, statusLine("Socket", statusError, err.Error(), colorize))
				}
			}

			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, sectionHeader("Configuration", colorize))
			fmt.Fprintln(stdout, renderPairs("Setting", "Value", [][2]string{
				{"Server", cfg.Ntfy.ServerURL},
				{"Topic", cfg.Ntfy.DefaultTopic},
				{"Priority", strconv.Itoa(cfg.Ntfy.DefaultPriority)},
				{"Send format", cfg.Ntfy.SendFormat},
				{"Queue capacity", strconv.Itoa(cfg.Daemon.QueueCapacity)},
				{"Hooks enabled", yesNo(cfg.Hooks.Enabled)},
			}))
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
