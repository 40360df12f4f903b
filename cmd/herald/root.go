package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var projectFlag string

	ctx := newCommandContext(&projectFlag)

	rootCmd := &cobra.Command{
		Use:           "herald",
		Short:         "Herald notification daemon CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&projectFlag, "project", "p", "", "Project directory for scope resolution")

	for _, cmd := range newDaemonCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(newDaemonCommand(ctx))
	rootCmd.AddCommand(newHookCommand(ctx))
	rootCmd.AddCommand(newTestNotifyCommand(ctx))
	rootCmd.AddCommand(newTemplatesCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
