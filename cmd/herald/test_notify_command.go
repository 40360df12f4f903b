package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"herald/internal/ntfy"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test notification directly to the ntfy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			client, err := ntfy.New(ntfy.Options{
				ServerURL:  cfg.Ntfy.ServerURL,
				AuthToken:  cfg.Ntfy.AuthToken,
				SendFormat: cfg.Ntfy.SendFormat,
				Timeout:    time.Duration(cfg.Ntfy.TimeoutSeconds) * time.Second,
				Retry: ntfy.RetryPolicy{
					MaxAttempts:  cfg.Retry.MaxAttempts,
					BaseDelay:    time.Duration(cfg.Retry.BaseDelayMillis) * time.Millisecond,
					MaxDelay:     time.Duration(cfg.Retry.MaxDelayMillis) * time.Millisecond,
					Multiplier:   cfg.Retry.BackoffMultiplier,
					JitterFactor: cfg.Retry.JitterFactor,
				},
			})
			if err != nil {
				return err
			}

			body := message
			if body == "" {
				body = "Test notification from herald"
			}
			err = client.Send(cmd.Context(), &ntfy.Message{
				Topic:    cfg.Ntfy.DefaultTopic,
				Title:    "Herald Test",
				Body:     body,
				Priority: cfg.Ntfy.DefaultPriority,
				Tags:     []string{"white_check_mark"},
			})
			if err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent to %s/%s\n", cfg.Ntfy.ServerURL, cfg.Ntfy.DefaultTopic)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Notification body to send")
	return cmd
}
