package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certguard/internal/duplicate/models"
	"certguard/internal/platform/config"
	"certguard/internal/platform/jwttoken"
	dErrors "certguard/pkg/domain-errors"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeCorpus(t *testing.T, certs []models.Certificate) string {
	t.Helper()
	data, err := json.Marshal(certs)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "corpus.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPresetsRoundTrip(t *testing.T) {
	out, err := run(t, "presets", "strict")
	require.NoError(t, err)

	cfg, err := config.ParseDetectionConfig([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, models.StrictConfig(), cfg)

	_, err = run(t, "presets", "paranoid")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestValidate(t *testing.T) {
	out, err := run(t, "presets", "lenient")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))

	out, err = run(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "6 rule(s), 6 enabled")
}

func TestCheck(t *testing.T) {
	corpus := writeCorpus(t, []models.Certificate{{
		ID:             "cert-1",
		IssuerID:       "issuer-1",
		RecipientEmail: "john@x.com",
		RecipientName:  "John Smith",
		Title:          "Go Fundamentals",
		IssuedAt:       time.Now().Add(-time.Hour),
	}})

	t.Run("identical candidate is blocked", func(t *testing.T) {
		out, err := run(t, "check", "--no-color", "--corpus", corpus,
			"--issuer", "issuer-1", "--email", "john@x.com", "--name", "John Smith", "--title", "Go Fundamentals")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		assert.Contains(t, out, "Verdict:    BLOCK")
		assert.Contains(t, out, "cert-1")
	})

	t.Run("unrelated candidate is allowed", func(t *testing.T) {
		out, err := run(t, "check", "--no-color", "--corpus", corpus,
			"--issuer", "issuer-2", "--email", "zoe@elsewhere.org", "--name", "Zoe Quinn", "--title", "Kubernetes Ops")
		require.NoError(t, err)
		assert.Contains(t, out, "Verdict:    ALLOW")
		assert.Contains(t, out, "Scanned:    1 certificate(s)")
	})

	t.Run("lenient preset only warns", func(t *testing.T) {
		out, err := run(t, "check", "--no-color", "--preset", "lenient", "--corpus", corpus,
			"--issuer", "issuer-1", "--email", "john@x.com", "--name", "John Smith", "--title", "Go Fundamentals")
		require.NoError(t, err)
		assert.Contains(t, out, "Verdict:    WARN")
	})
}

func TestReport(t *testing.T) {
	day := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	corpus := writeCorpus(t, []models.Certificate{
		{ID: "a", IssuerID: "issuer-1", IssuedAt: day, IsDuplicate: true, DuplicateOfID: "orig"},
		{ID: "b", IssuerID: "issuer-1", IssuedAt: day, IsDuplicate: true},
		{ID: "c", IssuerID: "issuer-1", IssuedAt: day},
	})

	out, err := run(t, "report", "--corpus", corpus,
		"--start", "2025-03-01T00:00:00Z", "--end", "2025-03-31T00:00:00Z")
	require.NoError(t, err)

	var report models.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.TotalDuplicates)
	assert.Equal(t, 1, report.DuplicatesByType[models.MatchTypeExact])
	assert.Equal(t, 1, report.DuplicatesByType[models.MatchTypeFuzzy])
}

func TestToken(t *testing.T) {
	out, err := run(t, "token", "--signing-key", "k", "--subject", "admin-1", "--role", "admin")
	require.NoError(t, err)

	claims, err := jwttoken.NewJWTService("k", jwttoken.DefaultIssuer, jwttoken.DefaultAudience).
		ValidateToken(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}
