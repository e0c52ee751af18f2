package engine

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"certguard/internal/duplicate/models"
)

// RuleResult pairs a rule with the matches it produced.
type RuleResult struct {
	Rule    models.Rule
	Matches []models.Match
}

// Aggregate folds per-rule results into a single verdict.
// This is pure domain logic - results must be in configuration order.
func Aggregate(results []RuleResult) models.Decision {
	matches := make([]models.Match, 0)
	var confidence float64
	for _, r := range results {
		for _, m := range r.Matches {
			matches = append(matches, m)
			confidence = math.Max(confidence, m.SimilarityScore)
		}
	}

	decision := models.Decision{
		IsDuplicate: len(matches) > 0 && confidence >= models.DuplicateThreshold,
		Confidence:  confidence,
		Matches:     matches,
		Action:      models.ActionAllow,
	}
	if decision.IsDuplicate {
		if rule, ok := GoverningRule(results); ok {
			decision.Action = rule.Action
			decision.RuleID = rule.ID
		}
	}
	decision.Message = Message(decision)
	return decision
}

// GoverningRule picks the rule whose action applies: highest priority among
// rules that produced matches, then lowest rule id, then configuration order.
func GoverningRule(results []RuleResult) (models.Rule, bool) {
	candidates := make([]models.Rule, 0, len(results))
	for _, r := range results {
		if len(r.Matches) > 0 {
			candidates = append(candidates, r.Rule)
		}
	}
	if len(candidates) == 0 {
		return models.Rule{}, false
	}
	slices.SortStableFunc(candidates, func(a, b models.Rule) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return candidates[0], true
}

// Message renders the user-facing summary for a verdict.
func Message(d models.Decision) string {
	if len(d.Matches) == 0 {
		return ""
	}
	pct := int(math.Round(d.Confidence * 100))
	switch d.Action {
	case models.ActionBlock:
		return fmt.Sprintf("Certificate issuance blocked: Found %d potential duplicate(s) with up to %d%% similarity.", len(d.Matches), pct)
	case models.ActionWarn:
		return fmt.Sprintf("Warning: Found %d potential duplicate(s) with up to %d%% similarity. Proceed with caution.", len(d.Matches), pct)
	case models.ActionAllow:
		return ""
	}
	return ""
}
