package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"certguard/internal/duplicate/service"
	overridestore "certguard/internal/duplicate/store/override"
)

func newReportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize flagged duplicates in a corpus over a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			certs, _, err := loadCorpus(ctx, v.GetString("corpus"))
			if err != nil {
				return err
			}
			start, err := time.Parse(time.RFC3339, v.GetString("start"))
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			end, err := time.Parse(time.RFC3339, v.GetString("end"))
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}

			report, err := service.New(certs, overridestore.NewInMemoryStore()).GenerateDuplicateReport(ctx, start, end)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().String("corpus", "", "JSON file with existing certificates")
	cmd.Flags().String("start", "", "range start (RFC 3339)")
	cmd.Flags().String("end", "", "range end (RFC 3339)")
	_ = cmd.MarkFlagRequired("corpus")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
