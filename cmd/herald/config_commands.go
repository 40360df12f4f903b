package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"herald/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigGetCommand(ctx))
	configCmd.AddCommand(newConfigSetCommand(ctx))

	return configCmd
}

func newConfigGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			value, err := configGet(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value and save the config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := configSet(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return nil
		},
	}
}

// configGet resolves a dotted key like ntfy.default_topic or
// hooks.topics.PostToolUse.
func configGet(cfg *config.Config, key string) (string, error) {
	switch key {
	case "ntfy.server_url":
		return cfg.Ntfy.ServerURL, nil
	case "ntfy.default_topic":
		return cfg.Ntfy.DefaultTopic, nil
	case "ntfy.default_priority":
		return strconv.Itoa(cfg.Ntfy.DefaultPriority), nil
	case "ntfy.send_format":
		return cfg.Ntfy.SendFormat, nil
	case "ntfy.timeout_seconds":
		return strconv.Itoa(cfg.Ntfy.TimeoutSeconds), nil
	case "daemon.max_retries":
		return strconv.Itoa(cfg.Daemon.MaxRetries), nil
	case "daemon.retry_delay_seconds":
		return strconv.Itoa(cfg.Daemon.RetryDelaySeconds), nil
	case "daemon.queue_capacity":
		return strconv.Itoa(cfg.Daemon.QueueCapacity), nil
	case "daemon.log_level":
		return cfg.Daemon.LogLevel, nil
	case "daemon.log_format":
		return cfg.Daemon.LogFormat, nil
	case "hooks.enabled":
		return strconv.FormatBool(cfg.Hooks.Enabled), nil
	}
	if hook, ok := strings.CutPrefix(key, "hooks.topics."); ok {
		return cfg.Hooks.Topics[hook], nil
	}
	if hook, ok := strings.CutPrefix(key, "hooks.priorities."); ok {
		if priority, set := cfg.Hooks.Priorities[hook]; set {
			return strconv.Itoa(priority), nil
		}
		return "", nil
	}
	return "", fmt.Errorf("unknown configuration key %q", key)
}

func configSet(cfg *config.Config, key, value string) error {
	switch key {
	case "ntfy.server_url":
		cfg.Ntfy.ServerURL = value
		return nil
	case "ntfy.default_topic":
		cfg.Ntfy.DefaultTopic = value
		return nil
	case "ntfy.default_priority":
		return setInt(&cfg.Ntfy.DefaultPriority, key, value)
	case "ntfy.auth_token":
		cfg.Ntfy.AuthToken = value
		return nil
	case "ntfy.send_format":
		cfg.Ntfy.SendFormat = value
		return nil
	case "ntfy.timeout_seconds":
		return setInt(&cfg.Ntfy.TimeoutSeconds, key, value)
	case "daemon.max_retries":
		return setInt(&cfg.Daemon.MaxRetries, key, value)
	case "daemon.retry_delay_seconds":
		return setInt(&cfg.Daemon.RetryDelaySeconds, key, value)
	case "daemon.queue_capacity":
		return setInt(&cfg.Daemon.QueueCapacity, key, value)
	case "daemon.log_level":
		cfg.Daemon.LogLevel = value
		return nil
	case "daemon.log_format":
		cfg.Daemon.LogFormat = value
		return nil
	case "hooks.enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, value)
		}
		cfg.Hooks.Enabled = enabled
		return nil
	}
	if hook, ok := strings.CutPrefix(key, "hooks.topics."); ok {
		if cfg.Hooks.Topics == nil {
			cfg.Hooks.Topics = make(map[string]string)
		}
		cfg.Hooks.Topics[hook] = value
		return nil
	}
	if hook, ok := strings.CutPrefix(key, "hooks.priorities."); ok {
		priority, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, value)
		}
		if cfg.Hooks.Priorities == nil {
			cfg.Hooks.Priorities = make(map[string]int)
		}
		cfg.Hooks.Priorities[hook] = priority
		return nil
	}
	return fmt.Errorf("unknown configuration key %q", key)
}

func setInt(target *int, key, value string) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", key, value)
	}
	*target = parsed
	return nil
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ctx.ensureScope()
			if err != nil {
				return err
			}
			cfg, path, exists, err := config.Load(scope)
			if err != nil {
				return err
			}

			display := *cfg
			if display.Ntfy.AuthToken != "" {
				display.Ntfy.AuthToken = "********"
			}
			rendered, err := toml.Marshal(display)
			if err != nil {
				return fmt.Errorf("render configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# config: %s", path)
			if !exists {
				fmt.Fprint(out, " (defaults, file missing)")
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, strings.TrimRight(string(rendered), "\n"))
			return nil
		},
	}
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := ctx.ensureScope()
			if err != nil {
				return err
			}
			cfg, path, exists, err := config.Load(scope)
			if err != nil {
				return err
			}
			if exists && !overwrite {
				return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", path)
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote configuration to %s\n", path)
			fmt.Fprintln(out, "Edit the file to set ntfy.default_topic and ntfy.auth_token if your server requires one.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}
