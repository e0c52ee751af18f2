// Package engine evaluates duplicate-detection rules against the certificate corpus.
//
// The scoring and aggregation functions are pure; Engine adds the corpus reads.
// Rules are evaluated concurrently, but the verdict is assembled in
// configuration order so the outcome never depends on scheduling.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"certguard/internal/duplicate/models"
)

// CertificateReader is the read-only view of the certificate corpus.
type CertificateReader interface {
	Query(ctx context.Context, q models.CertificateQuery) ([]models.Certificate, error)
}

// Pruner narrows a rule's candidate records before scoring.
type Pruner interface {
	Prune(candidate models.Candidate, rule models.Rule, records []models.Certificate) []models.Certificate
}

// Engine runs rules against a CertificateReader.
type Engine struct {
	reader      CertificateReader
	pruner      Pruner
	logger      *slog.Logger
	clock       func() time.Time
	parallelism int
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the time source used for rule time windows.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithPruner enables candidate pruning before scoring.
func WithPruner(p Pruner) Option {
	return func(e *Engine) {
		e.pruner = p
	}
}

// WithParallelism caps concurrent rule scans. Values below 1 mean unbounded.
func WithParallelism(n int) Option {
	return func(e *Engine) {
		e.parallelism = n
	}
}

func New(reader CertificateReader, opts ...Option) *Engine {
	e := &Engine{
		reader: reader,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateRule retrieves the rule's candidate records and scores them.
func (e *Engine) EvaluateRule(ctx context.Context, candidate models.Candidate, rule models.Rule) ([]models.Match, error) {
	return e.evaluateRule(ctx, candidate, rule, e.clock())
}

func (e *Engine) evaluateRule(ctx context.Context, candidate models.Candidate, rule models.Rule, now time.Time) ([]models.Match, error) {
	records, err := e.reader.Query(ctx, QueryFor(rule, now))
	if err != nil {
		return nil, fmt.Errorf("query certificates for rule %s: %w", rule.ID, err)
	}
	scanned := len(records)
	if e.pruner != nil {
		records = e.pruner.Prune(candidate, rule, records)
	}
	matches := EvaluateRule(candidate, rule, records)
	if e.logger != nil {
		e.logger.DebugContext(ctx, "rule evaluated",
			"rule_id", rule.ID,
			"scanned", scanned,
			"scored", len(records),
			"matches", len(matches),
		)
	}
	return matches, nil
}

// Decide evaluates every enabled rule and aggregates a verdict.
// A disabled config returns the allow verdict without touching the store.
func (e *Engine) Decide(ctx context.Context, candidate models.Candidate, cfg models.Config) (models.Decision, error) {
	if !cfg.Enabled {
		return models.AllowDecision(), nil
	}
	if err := cfg.Validate(); err != nil {
		return models.Decision{}, err
	}

	rules := cfg.EnabledRules()
	results := make([]RuleResult, len(rules))
	now := e.clock()

	g, gctx := errgroup.WithContext(ctx)
	if e.parallelism > 0 {
		g.SetLimit(e.parallelism)
	}
	for i, rule := range rules {
		g.Go(func() error {
			matches, err := e.evaluateRule(gctx, candidate, rule, now)
			if err != nil {
				return err
			}
			results[i] = RuleResult{Rule: rule, Matches: matches}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.Decision{}, err
	}
	return Aggregate(results), nil
}
