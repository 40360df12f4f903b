package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"herald/internal/daemonctl"
	"herald/internal/hooks"
	"herald/internal/ipc"
)

func newHookCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hook <name>",
		Short: "Submit a hook event from stdin to the daemon",
		Long: "Reads a JSON hook payload from stdin, validates it, and queues a " +
			"notification. Starts the daemon when it is not already running.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookName := args[0]

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Hooks.Enabled {
				return nil
			}

			raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), ipc.MaxFrameSize))
			if err != nil {
				return fmt.Errorf("read hook payload: %w", err)
			}
			if len(raw) == 0 {
				raw = []byte("{}")
			}

			var data map[string]any
			if err := json.Unmarshal(raw, &data); err != nil {
				return fmt.Errorf("hook payload is not valid JSON: %w", err)
			}
			if err := hooks.NewValidator().Validate(hookName, data); err != nil {
				return fmt.Errorf("invalid hook payload: %w", err)
			}
			if !cfg.ShouldProcess(hookName, string(raw)) {
				return nil
			}

			task := ipc.NotificationTask{
				HookName:  hookName,
				HookData:  string(raw),
				CreatedAt: time.Now().UTC(),
				NtfyConfig: ipc.TaskConfig{
					ServerURL:  cfg.Ntfy.ServerURL,
					Topic:      cfg.TopicFor(hookName),
					Priority:   cfg.PriorityFor(hookName),
					Tags:       cfg.Ntfy.DefaultTags,
					AuthToken:  cfg.Ntfy.AuthToken,
					SendFormat: cfg.Ntfy.SendFormat,
				},
			}
			if cwd, err := os.Getwd(); err == nil {
				task.ProjectPath = cwd
			}

			scope := cfg.Scope()
			if _, err := daemonctl.EnsureStarted(scope, ctx.childArgs(), 10*time.Second); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				return client.Submit(task)
			})
		},
	}
}
