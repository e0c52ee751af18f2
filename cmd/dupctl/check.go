package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"certguard/internal/duplicate/blocking"
	"certguard/internal/duplicate/engine"
	"certguard/internal/duplicate/models"
	"certguard/internal/duplicate/service"
	overridestore "certguard/internal/duplicate/store/override"
	dErrors "certguard/pkg/domain-errors"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a candidate certificate against a corpus",
		Long: `Loads the corpus (a JSON array of certificates), evaluates the candidate
against the selected rule set and prints the verdict. Exits non-zero when
the verdict is block.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := rulesFrom(v)
			if err != nil {
				return err
			}
			certs, n, err := loadCorpus(ctx, v.GetString("corpus"))
			if err != nil {
				return err
			}

			svc := service.New(certs, overridestore.NewInMemoryStore(),
				service.WithEngine(engine.New(certs, engine.WithPruner(blocking.NewPruner()))))
			decision, err := svc.CheckForDuplicates(ctx, models.Candidate{
				IssuerID:       v.GetString("issuer"),
				RecipientEmail: v.GetString("email"),
				RecipientName:  v.GetString("name"),
				Title:          v.GetString("title"),
			}, cfg)
			if err != nil {
				return err
			}

			printDecision(cmd.OutOrStdout(), decision, n, v.GetBool("no-color"))
			if decision.IsDuplicate && decision.Action == models.ActionBlock {
				return dErrors.New(dErrors.CodeConflict, "candidate blocked")
			}
			return nil
		},
	}
	cmd.Flags().String("corpus", "", "JSON file with existing certificates")
	cmd.Flags().String("issuer", "", "candidate issuer id")
	cmd.Flags().String("email", "", "candidate recipient email")
	cmd.Flags().String("name", "", "candidate recipient name")
	cmd.Flags().String("title", "", "candidate certificate title")
	_ = cmd.MarkFlagRequired("issuer")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func printDecision(w io.Writer, d models.Decision, scanned int, noColor bool) {
	paint := func(attr color.Attribute) func(a ...any) string {
		c := color.New(attr, color.Bold)
		if noColor {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	verdict := paint(color.FgGreen)("ALLOW")
	switch {
	case d.IsDuplicate && d.Action == models.ActionBlock:
		verdict = paint(color.FgRed)("BLOCK")
	case d.IsDuplicate && d.Action == models.ActionWarn:
		verdict = paint(color.FgYellow)("WARN")
	}

	fmt.Fprintf(w, "Verdict:    %s\n", verdict)
	fmt.Fprintf(w, "Confidence: %.2f\n", d.Confidence)
	fmt.Fprintf(w, "Scanned:    %d certificate(s)\n", scanned)
	if d.RuleID != "" {
		fmt.Fprintf(w, "Rule:       %s\n", d.RuleID)
	}
	if d.Message != "" {
		fmt.Fprintf(w, "%s\n", d.Message)
	}
	for _, m := range d.Matches {
		fmt.Fprintf(w, "  - %s  %-12s %.2f  %s <%s> %q\n",
			m.CertificateID, m.MatchType, m.SimilarityScore, m.RecipientName, m.RecipientEmail, m.Title)
	}
}
