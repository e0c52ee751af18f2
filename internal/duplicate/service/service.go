package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"certguard/internal/duplicate/engine"
	"certguard/internal/duplicate/lock"
	dupmetrics "certguard/internal/duplicate/metrics"
	"certguard/internal/duplicate/models"
	"certguard/internal/platform/tracing"
	dErrors "certguard/pkg/domain-errors"
	audit "certguard/pkg/platform/audit"
	"certguard/pkg/platform/sentinel"
	"certguard/pkg/requestcontext"
)

const defaultLockTTL = 10 * time.Second

// CertificateStore is the certificate corpus the service reads and the issuance gate writes.
type CertificateStore interface {
	Query(ctx context.Context, q models.CertificateQuery) ([]models.Certificate, error)
	QueryDuplicatesInRange(ctx context.Context, start, end time.Time) ([]models.Certificate, error)
	FindByID(ctx context.Context, id string) (models.Certificate, error)
	Save(ctx context.Context, cert models.Certificate) error
}

// OverrideStore is the override request ledger.
// Execute must apply fn and persist the result atomically.
type OverrideStore interface {
	Create(ctx context.Context, req *models.OverrideRequest) error
	FindByID(ctx context.Context, id string) (*models.OverrideRequest, error)
	List(ctx context.Context, status models.OverrideStatus) ([]models.OverrideRequest, error)
	Execute(ctx context.Context, id string, fn func(*models.OverrideRequest) error) (*models.OverrideRequest, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates duplicate checks, reporting, overrides and issuance.
type Service struct {
	certs     CertificateStore
	overrides OverrideStore
	engine    *engine.Engine
	locker    lock.Locker
	lockTTL   time.Duration
	config    models.Config
	logger    *slog.Logger
	auditor   AuditPublisher
	metrics   *dupmetrics.Metrics
	tracer    trace.Tracer
	newID     func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *dupmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEngine replaces the engine built over the certificate store.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) {
		s.engine = e
	}
}

// WithLocker sets the issuance lock and its lease. Defaults to an in-process
// lock. The lease is not renewed: when the request context carries a later
// deadline the lease is stretched to it, otherwise check plus save must finish
// within ttl or a concurrent issuance for the same recipient can proceed.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

// WithConfig sets the rule configuration used when a caller supplies none.
func WithConfig(cfg models.Config) Option {
	return func(s *Service) {
		s.config = cfg.Clone()
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

func New(certs CertificateStore, overrides OverrideStore, opts ...Option) *Service {
	s := &Service{
		certs:     certs,
		overrides: overrides,
		lockTTL:   defaultLockTTL,
		config:    models.DefaultConfig(),
		tracer:    tracing.Tracer("duplicate"),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.New(certs, engine.WithLogger(s.logger))
	}
	if s.locker == nil {
		s.locker = lock.NewMemoryLocker()
	}
	return s
}

// leaseFor returns the lock lease for one issuance, covering the request
// deadline when it outlives the configured TTL.
func (s *Service) leaseFor(ctx context.Context) time.Duration {
	ttl := s.lockTTL
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > ttl {
			ttl = remaining
		}
	}
	return ttl
}

// Config returns a copy of the configured rule set.
func (s *Service) Config() models.Config {
	return s.config.Clone()
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

// emit publishes an audit event. Delivery failures are logged and never fail
// the calling operation.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		event.ActorID = requestcontext.Principal(ctx)
	}
	if err := s.auditor.Emit(ctx, event); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to publish audit event",
			"event_type", event.Type,
			"error", err,
		)
	}
}

// storeErr maps infrastructure failures onto the coded error taxonomy.
// Coded errors pass through untouched.
func storeErr(err error, what string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeConflict, what+" was modified concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, what+" store unavailable")
	}
}
