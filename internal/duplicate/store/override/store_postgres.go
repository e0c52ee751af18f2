package override

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"certguard/internal/duplicate/models"
	"certguard/pkg/platform/sentinel"
	txcontext "certguard/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists override requests in the override_requests table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const overrideColumns = `id, certificate_id, reason, requested_by, approved_by, reviewed_by,
	status, created_at, reviewed_at`

func (s *PostgresStore) Create(ctx context.Context, req *models.OverrideRequest) error {
	query := `
		INSERT INTO override_requests (` + overrideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		req.ID,
		req.CertificateID,
		req.Reason,
		req.RequestedBy,
		nullString(req.ApprovedBy),
		nullString(req.ReviewedBy),
		string(req.Status),
		req.CreatedAt,
		nullTime(req.ReviewedAt),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create override request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.OverrideRequest, error) {
	return s.find(ctx, `SELECT `+overrideColumns+` FROM override_requests WHERE id = $1`, id)
}

// List returns requests oldest first, optionally filtered by status.
func (s *PostgresStore) List(ctx context.Context, status models.OverrideStatus) ([]models.OverrideRequest, error) {
	statuses := []string{string(status)}
	if status == "" {
		statuses = []string{
			string(models.OverrideStatusPending),
			string(models.OverrideStatusApproved),
			string(models.OverrideStatusRejected),
		}
	}
	query := `
		SELECT ` + overrideColumns + `
		FROM override_requests
		WHERE status = ANY($1)
		ORDER BY created_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, pq.Array(statuses))
	if err != nil {
		return nil, fmt.Errorf("list override requests: %w", err)
	}
	defer rows.Close()

	out := make([]models.OverrideRequest, 0)
	for rows.Next() {
		req, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("scan override request: %w", err)
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate override requests: %w", err)
	}
	return out, nil
}

// Execute locks the row, applies fn, and writes the result in one transaction.
// The update is guarded on the pending state so a concurrent reviewer loses
// with sentinel.ErrConflict instead of overwriting a terminal decision.
func (s *PostgresStore) Execute(ctx context.Context, id string, fn func(*models.OverrideRequest) error) (*models.OverrideRequest, error) {
	var updated *models.OverrideRequest
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		req, err := s.find(ctx, `SELECT `+overrideColumns+` FROM override_requests WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if err := fn(req); err != nil {
			return err
		}

		query := `
			UPDATE override_requests
			SET status = $2, approved_by = $3, reviewed_by = $4, reviewed_at = $5
			WHERE id = $1 AND status = 'pending'
		`
		res, err := s.execer(ctx).ExecContext(ctx, query,
			req.ID,
			string(req.Status),
			nullString(req.ApprovedBy),
			nullString(req.ReviewedBy),
			nullTime(req.ReviewedAt),
		)
		if err != nil {
			return fmt.Errorf("update override request: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update override request: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrConflict
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *PostgresStore) find(ctx context.Context, query string, id string) (*models.OverrideRequest, error) {
	req, err := scanOverride(s.execer(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find override request: %w", err)
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOverride(row rowScanner) (*models.OverrideRequest, error) {
	var (
		req                    models.OverrideRequest
		status                 string
		approvedBy, reviewedBy sql.NullString
		reviewedAt             sql.NullTime
	)
	err := row.Scan(
		&req.ID,
		&req.CertificateID,
		&req.Reason,
		&req.RequestedBy,
		&approvedBy,
		&reviewedBy,
		&status,
		&req.CreatedAt,
		&reviewedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Status = models.OverrideStatus(status)
	req.ApprovedBy = approvedBy.String
	req.ReviewedBy = reviewedBy.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		req.ReviewedAt = &t
	}
	return &req, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
