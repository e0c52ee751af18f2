package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certguard/internal/duplicate/engine"
	"certguard/internal/duplicate/models"
	certstore "certguard/internal/duplicate/store/certificate"
	"certguard/internal/platform/config"
)

func nameTypoFixture(t *testing.T) (*certstore.InMemoryStore, models.Candidate, models.Config) {
	t.Helper()
	certs := certstore.NewInMemoryStore()
	require.NoError(t, certs.Save(context.Background(), models.Certificate{
		ID:             "cert-1",
		IssuerID:       "issuer-1",
		RecipientEmail: "catherine@x.com",
		RecipientName:  "Catherine Smith",
		Title:          "Go Fundamentals",
		Status:         models.CertificateStatusActive,
		IssuedAt:       time.Now().Add(-time.Hour),
	}))
	candidate := models.Candidate{
		IssuerID:       "issuer-2",
		RecipientEmail: "kathy@y.org",
		RecipientName:  "Katherine Smith",
		Title:          "Rust Basics",
	}
	cfg := models.Config{
		Enabled:       true,
		DefaultAction: models.ActionAllow,
		Rules: []models.Rule{{
			ID:            "name_typo",
			Enabled:       true,
			Action:        models.ActionWarn,
			Threshold:     0.9,
			CheckFields:   []models.Field{models.FieldRecipientName},
			FuzzyMatching: true,
			Priority:      1,
		}},
	}
	return certs, candidate, cfg
}

func TestEngineOptionsDefaultScoresEveryRecord(t *testing.T) {
	certs, candidate, cfg := nameTypoFixture(t)
	log := slog.New(slog.DiscardHandler)
	ctx := context.Background()

	wired, err := engine.New(certs, engineOptions(config.Server{}, log)...).Decide(ctx, candidate, cfg)
	require.NoError(t, err)
	plain, err := engine.New(certs).Decide(ctx, candidate, cfg)
	require.NoError(t, err)

	assert.Equal(t, plain, wired)
	assert.True(t, wired.IsDuplicate)
	assert.Len(t, wired.Matches, 1)
}

func TestEngineOptionsBlockingIsOptIn(t *testing.T) {
	certs, candidate, cfg := nameTypoFixture(t)
	log := slog.New(slog.DiscardHandler)

	// K/C typo shares no name-prefix key, so the pruned engine never scores it.
	pruned, err := engine.New(certs, engineOptions(config.Server{BlockingEnabled: true}, log)...).
		Decide(context.Background(), candidate, cfg)
	require.NoError(t, err)
	assert.False(t, pruned.IsDuplicate)
	assert.Empty(t, pruned.Matches)
}
