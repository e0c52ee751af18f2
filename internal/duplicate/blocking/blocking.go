// Package blocking prunes a rule's candidate records to those sharing a
// blocking key with the incoming certificate, so edit distance only runs on
// plausible pairs.
//
// Pruning trades recall for speed: a record that shares no key on any of the
// rule's fields is never scored. It is opt-in via engine.WithPruner.
package blocking

import (
	"strings"

	"github.com/armon/go-radix"

	"certguard/internal/duplicate/models"
	"certguard/internal/duplicate/similarity"
)

const (
	namePrefixLen  = 2
	titlePrefixLen = 3
)

// Pruner builds a radix index over the scanned records for each rule.
type Pruner struct{}

func NewPruner() *Pruner {
	return &Pruner{}
}

// Prune keeps records that share at least one blocking key with the candidate
// on the rule's check fields. If the candidate yields no keys, records pass through.
func (p *Pruner) Prune(candidate models.Candidate, rule models.Rule, records []models.Certificate) []models.Certificate {
	probes := make([]string, 0, len(rule.CheckFields))
	for _, f := range rule.CheckFields {
		if key, ok := Key(f, candidate.Value(f)); ok {
			probes = append(probes, key)
		}
	}
	if len(probes) == 0 {
		return records
	}

	idx := NewIndex(rule.CheckFields, records)
	keep := make(map[int]struct{})
	for _, probe := range probes {
		for _, i := range idx.Lookup(probe) {
			keep[i] = struct{}{}
		}
	}

	out := make([]models.Certificate, 0, len(keep))
	for i, rec := range records {
		if _, ok := keep[i]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Index maps blocking keys to record positions.
type Index struct {
	tree *radix.Tree
}

// NewIndex indexes records under their keys for the given fields.
func NewIndex(fields []models.Field, records []models.Certificate) *Index {
	tree := radix.New()
	for i, rec := range records {
		for _, f := range fields {
			key, ok := Key(f, rec.Value(f))
			if !ok {
				continue
			}
			var positions []int
			if v, found := tree.Get(key); found {
				positions = v.([]int)
			}
			tree.Insert(key, append(positions, i))
		}
	}
	return &Index{tree: tree}
}

// Lookup returns positions of records whose key starts with probe.
// Email keys are reversed domains, so "com.example" also finds "com.example.mail".
func (x *Index) Lookup(probe string) []int {
	var out []int
	x.tree.WalkPrefix(probe, func(_ string, v interface{}) bool {
		out = append(out, v.([]int)...)
		return false
	})
	return out
}

// Key derives the blocking key for a field value.
func Key(f models.Field, value string) (string, bool) {
	v := similarity.Normalize(value)
	if v == "" {
		return "", false
	}
	switch f {
	case models.FieldRecipientEmail:
		_, domain, ok := strings.Cut(v, "@")
		if !ok || domain == "" {
			return "e/" + v, true
		}
		return "e/" + reverseDomain(domain), true
	case models.FieldRecipientName:
		return "n/" + prefix(strings.Fields(v)[0], namePrefixLen), true
	case models.FieldTitle:
		return "t/" + prefix(v, titlePrefixLen), true
	case models.FieldIssuerID:
		return "i/" + v, true
	}
	return "", false
}

func reverseDomain(domain string) string {
	labels := strings.Split(domain, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, ".")
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
