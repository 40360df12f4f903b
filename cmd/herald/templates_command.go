package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"herald/internal/templates"
)

func newTemplatesCommand(ctx *commandContext) *cobra.Command {
	var show string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List notification templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if show != "" {
				text, ok := cfg.Templates[show]
				if !ok {
					text, ok = templates.BuiltinSource(show)
				}
				if !ok {
					return fmt.Errorf("no template named %q", show)
				}
				fmt.Fprintln(out, text)
				return nil
			}

			engine, err := templates.New()
			if err != nil {
				return err
			}
			for name, text := range cfg.Templates {
				if err := engine.Register(name, text); err != nil {
					return err
				}
			}

			rows := make([][2]string, 0, len(engine.Names()))
			for _, name := range engine.Names() {
				source := "builtin"
				if _, ok := cfg.Templates[name]; ok {
					source = "custom"
				}
				rows = append(rows, [2]string{name, source})
			}
			fmt.Fprintln(out, renderPairs("Hook", "Template", rows))
			fmt.Fprintln(out, strings.TrimSpace(`
Override a template with a [templates] entry in the config file, keyed by
hook name. Use --show to print a template body.`))
			return nil
		},
	}

	cmd.Flags().StringVarP(&show, "show", "s", "", "Print the template body for a hook")
	return cmd
}
