// Command dupctl runs duplicate checks and reports against a certificate
// corpus file, exports rule presets and mints development tokens.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"certguard/internal/duplicate/models"
	"certguard/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree with its own viper instance.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("DUPCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "dupctl",
		Short:         "Certificate duplicate detection toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return v.BindPFlags(cmd.Flags())
		},
	}
	root.PersistentFlags().String("rules", "", "YAML rule set file (overrides --preset)")
	root.PersistentFlags().String("preset", models.PresetDefault, "rule preset: default, strict or lenient")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newCheckCmd(v),
		newReportCmd(v),
		newPresetsCmd(),
		newValidateCmd(),
		newTokenCmd(v),
	)
	return root
}

// rulesFrom resolves the rule set: an explicit file wins over the preset.
func rulesFrom(v *viper.Viper) (models.Config, error) {
	if path := v.GetString("rules"); path != "" {
		return config.LoadDetectionConfig(path)
	}
	return models.PresetConfig(v.GetString("preset"))
}
