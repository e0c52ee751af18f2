package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"certguard/internal/duplicate/models"
	"certguard/internal/platform/config"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "presets [default|strict|lenient]",
		Short:     "Print a rule preset as YAML",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{models.PresetDefault, models.PresetStrict, models.PresetLenient},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := models.PresetDefault
			if len(args) == 1 {
				name = args[0]
			}
			cfg, err := models.PresetConfig(name)
			if err != nil {
				return err
			}
			out, err := config.MarshalDetectionConfig(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a YAML rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDetectionConfig(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rule(s), %d enabled\n", args[0], len(cfg.Rules), len(cfg.EnabledRules()))
			return nil
		},
	}
}
