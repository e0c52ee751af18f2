package models

import "time"

// MatchType classifies how a match was established.
type MatchType string

const (
	MatchTypeExact      MatchType = "exact"
	MatchTypeFuzzyEmail MatchType = "fuzzy_email"
	MatchTypeFuzzyName  MatchType = "fuzzy_name"
	MatchTypeFuzzyTitle MatchType = "fuzzy_title"
	// MatchTypeFuzzy is only produced by reports, which cannot recover the
	// per-field classification recorded at detection time.
	MatchTypeFuzzy MatchType = "fuzzy"
)

// DuplicateThreshold is the global confidence a verdict needs to count as a duplicate,
// independent of any single rule's threshold.
const DuplicateThreshold = 0.7

// Match is one existing certificate that satisfied a rule.
type Match struct {
	CertificateID   string    `json:"certificateId"`
	IssuerID        string    `json:"issuerId"`
	RecipientEmail  string    `json:"recipientEmail"`
	RecipientName   string    `json:"recipientName"`
	Title           string    `json:"title"`
	IssuedAt        time.Time `json:"issuedAt"`
	SimilarityScore float64   `json:"similarityScore"`
	MatchType       MatchType `json:"matchType"`
	RuleID          string    `json:"ruleId,omitempty"`
}

// Decision is the verdict for one candidate.
type Decision struct {
	IsDuplicate bool    `json:"isDuplicate"`
	Confidence  float64 `json:"confidence"`
	Matches     []Match `json:"matches"`
	Action      Action  `json:"action"`
	Message     string  `json:"message"`
	// RuleID is the rule whose action governs the verdict; empty when not a duplicate.
	RuleID string `json:"ruleId,omitempty"`
}

// AllowDecision is the verdict returned when detection is disabled.
func AllowDecision() Decision {
	return Decision{
		IsDuplicate: false,
		Confidence:  0,
		Matches:     []Match{},
		Action:      ActionAllow,
	}
}

// BestMatch returns the highest-scoring match. The first one wins ties.
func (d Decision) BestMatch() (Match, bool) {
	if len(d.Matches) == 0 {
		return Match{}, false
	}
	best := d.Matches[0]
	for _, m := range d.Matches[1:] {
		if m.SimilarityScore > best.SimilarityScore {
			best = m
		}
	}
	return best, true
}
