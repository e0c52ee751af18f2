package certificate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"certguard/internal/duplicate/models"
	"certguard/pkg/platform/sentinel"
	txcontext "certguard/pkg/platform/tx"
)

// PostgresStore reads and writes the certificates table.
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

const certificateColumns = `id, issuer_id, recipient_email, recipient_name, title, description,
	status, issued_at, is_duplicate, duplicate_of_id, override_reason, overridden_by`

func (s *PostgresStore) Save(ctx context.Context, cert models.Certificate) error {
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			is_duplicate = EXCLUDED.is_duplicate,
			duplicate_of_id = EXCLUDED.duplicate_of_id,
			override_reason = EXCLUDED.override_reason,
			overridden_by = EXCLUDED.overridden_by
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		cert.ID,
		cert.IssuerID,
		cert.RecipientEmail,
		cert.RecipientName,
		cert.Title,
		cert.Description,
		string(cert.Status),
		cert.IssuedAt,
		cert.IsDuplicate,
		nullString(cert.DuplicateOfID),
		nullString(cert.OverrideReason),
		nullString(cert.OverriddenBy),
	)
	if err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	cert, err := scanCertificate(s.execer(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Certificate{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Certificate{}, fmt.Errorf("find certificate: %w", err)
	}
	return cert, nil
}

// Query returns the certificates a rule scan needs, in issuance order.
func (s *PostgresStore) Query(ctx context.Context, q models.CertificateQuery) ([]models.Certificate, error) {
	var issuedAfter sql.NullTime
	if q.IssuedAfter != nil {
		issuedAfter = sql.NullTime{Time: *q.IssuedAfter, Valid: true}
	}
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE ($1 = FALSE OR status <> 'revoked')
		  AND ($2::timestamptz IS NULL OR issued_at >= $2)
		ORDER BY issued_at, id
	`
	return s.list(ctx, query, q.NotRevoked, issuedAfter)
}

// QueryDuplicatesInRange returns flagged duplicates issued within [start, end], oldest first.
func (s *PostgresStore) QueryDuplicatesInRange(ctx context.Context, start, end time.Time) ([]models.Certificate, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE is_duplicate AND issued_at BETWEEN $1 AND $2
		ORDER BY issued_at, id
	`
	return s.list(ctx, query, start, end)
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]models.Certificate, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query certificates: %w", err)
	}
	defer rows.Close()

	out := make([]models.Certificate, 0)
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		out = append(out, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (models.Certificate, error) {
	var (
		cert                                    models.Certificate
		status                                  string
		duplicateOf, overrideReason, overridden sql.NullString
	)
	err := row.Scan(
		&cert.ID,
		&cert.IssuerID,
		&cert.RecipientEmail,
		&cert.RecipientName,
		&cert.Title,
		&cert.Description,
		&status,
		&cert.IssuedAt,
		&cert.IsDuplicate,
		&duplicateOf,
		&overrideReason,
		&overridden,
	)
	if err != nil {
		return models.Certificate{}, err
	}
	cert.Status = models.CertificateStatus(status)
	cert.DuplicateOfID = duplicateOf.String
	cert.OverrideReason = overrideReason.String
	cert.OverriddenBy = overridden.String
	return cert, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
