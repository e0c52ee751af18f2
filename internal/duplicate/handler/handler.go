package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"certguard/internal/duplicate/models"
	"certguard/internal/platform/middleware"
	dErrors "certguard/pkg/domain-errors"
	"certguard/pkg/platform/httputil"
	"certguard/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

// Service defines the duplicate detection operations exposed over HTTP.
type Service interface {
	Config() models.Config
	CheckForDuplicates(ctx context.Context, candidate models.Candidate, cfg models.Config) (models.Decision, error)
	Issue(ctx context.Context, candidate models.Candidate, cfg models.Config, overrideReason string) (*models.Certificate, error)
	GenerateDuplicateReport(ctx context.Context, start, end time.Time) (*models.Report, error)
	CreateOverrideRequest(ctx context.Context, certificateID, reason, requestedBy string) (*models.OverrideRequest, error)
	ApproveOverrideRequest(ctx context.Context, requestID, approvedBy string) (*models.OverrideRequest, error)
	RejectOverrideRequest(ctx context.Context, requestID, rejectedBy string) (*models.OverrideRequest, error)
	GetOverrideRequest(ctx context.Context, requestID string) (*models.OverrideRequest, error)
	ListOverrideRequests(ctx context.Context, status models.OverrideStatus) ([]models.OverrideRequest, error)
}

// Handler wires duplicate detection endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the routes under /duplicate-detection. Callers install
// authentication; admin-only routes are gated here.
func (h *Handler) Register(r chi.Router) {
	r.Route("/duplicate-detection", func(r chi.Router) {
		r.Post("/check", h.HandleCheck)
		r.Post("/issue", h.HandleIssue)
		r.Post("/override-request", h.HandleCreateOverride)
		r.Get("/override-request/{requestId}", h.HandleGetOverride)
		r.Get("/rules/presets/{name}", h.HandlePreset)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(requestcontext.RoleAdmin, h.logger))
			r.Get("/report", h.HandleReport)
			r.Get("/override-request", h.HandleListOverrides)
			r.Post("/override-request/{requestId}/approve", h.HandleApprove)
			r.Post("/override-request/{requestId}/reject", h.HandleReject)
		})
	})
}

// HandleCheck handles POST /duplicate-detection/check.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.CheckForDuplicates(ctx, req.Certificate.toModel(), req.ResolvedConfig(h.service.Config()))
	if err != nil {
		h.fail(ctx, w, "duplicate check failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleIssue handles POST /duplicate-detection/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cert, err := h.service.Issue(ctx, req.Certificate.toModel(), req.ResolvedConfig(h.service.Config()), req.OverrideReason)
	if err != nil {
		h.fail(ctx, w, "certificate issuance refused", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cert)
}

// HandleReport handles GET /duplicate-detection/report?startDate&endDate.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, end, err := parseReportRange(r.URL.Query().Get("startDate"), r.URL.Query().Get("endDate"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.service.GenerateDuplicateReport(ctx, start, end)
	if err != nil {
		h.fail(ctx, w, "duplicate report failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleCreateOverride handles POST /duplicate-detection/override-request.
func (h *Handler) HandleCreateOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal := requestcontext.Principal(ctx)
	if principal == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[OverrideRequestBody](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.CreateOverrideRequest(ctx, req.CertificateID, req.Reason, principal)
	if err != nil {
		h.fail(ctx, w, "override request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleApprove handles POST /duplicate-detection/override-request/{requestId}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.ApproveOverrideRequest)
}

// HandleReject handles POST /duplicate-detection/override-request/{requestId}/reject.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.RejectOverrideRequest)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, string) (*models.OverrideRequest, error)) {
	ctx := r.Context()
	reviewed, err := apply(ctx, chi.URLParam(r, "requestId"), requestcontext.Principal(ctx))
	if err != nil {
		h.fail(ctx, w, "override review failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviewed)
}

// HandleGetOverride handles GET /duplicate-detection/override-request/{requestId}.
func (h *Handler) HandleGetOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := h.service.GetOverrideRequest(ctx, chi.URLParam(r, "requestId"))
	if err != nil {
		h.fail(ctx, w, "override lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

// HandleListOverrides handles GET /duplicate-detection/override-request?status=.
func (h *Handler) HandleListOverrides(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqs, err := h.service.ListOverrideRequests(ctx, models.OverrideStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(ctx, w, "override listing failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

// HandlePreset handles GET /duplicate-detection/rules/presets/{name}.
func (h *Handler) HandlePreset(w http.ResponseWriter, r *http.Request) {
	cfg, err := models.PresetConfig(chi.URLParam(r, "name"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// fail logs server-side failures at Error and client failures at Warn.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelWarn
	var de *dErrors.Error
	if !errors.As(err, &de) || httputil.StatusFor(de.Code) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
