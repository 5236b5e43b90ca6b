package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/monarrange/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file for errors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Loading already validated; reaching here means it is valid.
			if len(a.res.Files) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s does not exist; defaults are valid\n", a.configPath)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", a.configPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "explain PATH",
		Short:     "Show a setting's effective value and where it came from",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Paths(),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, src, err := config.Explain(a.res, args[0])
			if err != nil {
				return err
			}
			origin := "default"
			if src.Kind == config.SourceFile {
				origin = fmt.Sprintf("%s:%d:%d", src.File, src.Line, src.Column)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v (%s)\n", args[0], value, origin)
			return nil
		},
	})

	cmd.AddCommand(newConfigInitCmd(a))
	return cmd
}
