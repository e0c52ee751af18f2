package blocking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certguard/internal/duplicate/models"
)

func TestKey(t *testing.T) {
	cases := []struct {
		field models.Field
		value string
		want  string
	}{
		{models.FieldRecipientEmail, "John@Mail.Example.com", "e/com.example.mail"},
		{models.FieldRecipientEmail, "not-an-email", "e/not-an-email"},
		{models.FieldRecipientName, "  John Doe ", "n/jo"},
		{models.FieldRecipientName, "J", "n/j"},
		{models.FieldTitle, "Kubernetes Admin", "t/kub"},
		{models.FieldIssuerID, "Issuer-1", "i/issuer-1"},
	}
	for _, tc := range cases {
		got, ok := Key(tc.field, tc.value)
		require.True(t, ok, tc.value)
		assert.Equal(t, tc.want, got)
	}

	_, ok := Key(models.FieldTitle, "   ")
	assert.False(t, ok)
}

func TestPrune(t *testing.T) {
	records := []models.Certificate{
		{ID: "same-domain", RecipientEmail: "jon@example.com"},
		{ID: "subdomain", RecipientEmail: "john@eu.example.com"},
		{ID: "other-domain", RecipientEmail: "john@other.org"},
		{ID: "no-email"},
	}
	rule := models.Rule{ID: "email", CheckFields: []models.Field{models.FieldRecipientEmail}}

	t.Run("keeps records in the candidate's domain tree", func(t *testing.T) {
		got := NewPruner().Prune(models.Candidate{RecipientEmail: "john@example.com"}, rule, records)
		ids := make([]string, 0, len(got))
		for _, r := range got {
			ids = append(ids, r.ID)
		}
		assert.Equal(t, []string{"same-domain", "subdomain"}, ids)
	})

	t.Run("candidate without keys passes records through", func(t *testing.T) {
		got := NewPruner().Prune(models.Candidate{RecipientName: "John"}, rule, records)
		assert.Len(t, got, len(records))
	})

	t.Run("any shared field keeps the record", func(t *testing.T) {
		multi := models.Rule{ID: "multi", CheckFields: []models.Field{models.FieldRecipientEmail, models.FieldIssuerID}}
		recs := []models.Certificate{
			{ID: "issuer-only", RecipientEmail: "x@elsewhere.net", IssuerID: "iss-1"},
			{ID: "neither", RecipientEmail: "y@elsewhere.net", IssuerID: "iss-2"},
		}
		got := NewPruner().Prune(models.Candidate{RecipientEmail: "a@example.com", IssuerID: "iss-1"}, multi, recs)
		require.Len(t, got, 1)
		assert.Equal(t, "issuer-only", got[0].ID)
	})
}
