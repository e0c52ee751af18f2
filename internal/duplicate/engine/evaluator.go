package engine

import (
	"strings"
	"time"

	"certguard/internal/duplicate/models"
	"certguard/internal/duplicate/similarity"
)

// decisiveFieldScore is the per-field fuzzy score that names a match type.
const decisiveFieldScore = 0.9

// classifiedFields are checked in order when naming a fuzzy match type.
var classifiedFields = []struct {
	field     models.Field
	matchType models.MatchType
}{
	{models.FieldRecipientEmail, models.MatchTypeFuzzyEmail},
	{models.FieldRecipientName, models.MatchTypeFuzzyName},
	{models.FieldTitle, models.MatchTypeFuzzyTitle},
}

// QueryFor builds the corpus filter for a rule scan. Revoked certificates are
// always excluded; a time window restricts to issuedAt >= now - window.
func QueryFor(rule models.Rule, now time.Time) models.CertificateQuery {
	q := models.CertificateQuery{NotRevoked: true}
	if rule.TimeWindowDays != nil {
		cutoff := now.AddDate(0, 0, -*rule.TimeWindowDays)
		q.IssuedAfter = &cutoff
	}
	return q
}

// EvaluateRule scores every record against the candidate and returns the
// records whose similarity reaches the rule threshold, in input order.
// This is pure domain logic: records must already be filtered by QueryFor.
func EvaluateRule(candidate models.Candidate, rule models.Rule, records []models.Certificate) []models.Match {
	matches := make([]models.Match, 0)
	for _, rec := range records {
		score := RecordSimilarity(candidate, rec, rule)
		if score < rule.Threshold {
			continue
		}
		matches = append(matches, models.Match{
			CertificateID:   rec.ID,
			IssuerID:        rec.IssuerID,
			RecipientEmail:  rec.RecipientEmail,
			RecipientName:   rec.RecipientName,
			Title:           rec.Title,
			IssuedAt:        rec.IssuedAt,
			SimilarityScore: score,
			MatchType:       ClassifyMatch(candidate, rec, rule),
			RuleID:          rule.ID,
		})
	}
	return matches
}

// RecordSimilarity is the mean field score over the rule's fields present on
// both sides. No comparable field scores 0.
func RecordSimilarity(candidate models.Candidate, rec models.Certificate, rule models.Rule) float64 {
	var total float64
	var compared int
	for _, f := range rule.CheckFields {
		a, b := candidate.Value(f), rec.Value(f)
		if !present(a) || !present(b) {
			continue
		}
		if rule.FuzzyMatching {
			total += similarity.Score(a, b)
		} else {
			total += similarity.Exact(a, b)
		}
		compared++
	}
	if compared == 0 {
		return 0
	}
	return total / float64(compared)
}

// ClassifyMatch names the field that decisively matched under a fuzzy rule.
// Non-fuzzy rules, and fuzzy rules where no single field reaches 0.9, report Exact.
func ClassifyMatch(candidate models.Candidate, rec models.Certificate, rule models.Rule) models.MatchType {
	if !rule.FuzzyMatching {
		return models.MatchTypeExact
	}
	for _, cf := range classifiedFields {
		a, b := candidate.Value(cf.field), rec.Value(cf.field)
		if !present(a) || !present(b) {
			continue
		}
		if similarity.Score(a, b) >= decisiveFieldScore {
			return cf.matchType
		}
	}
	return models.MatchTypeExact
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
