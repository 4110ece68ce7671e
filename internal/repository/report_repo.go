package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatlens/internal/domain"
)

// ReportRepository persists the two run-level reports spec.md §6 names
// (redaction coverage, missing attachments) as JSONB rows keyed by run_id,
// so the local query API can serve them back without recomputing a pass.
// Grounded on character_repo.go's pgx Create/List idiom.
type ReportRepository interface {
	SaveRedactionReport(ctx context.Context, runID, contact string, report domain.RedactionReport) error
	RedactionReport(ctx context.Context, runID string) (domain.RedactionReport, error)
	SaveMissingAttachmentsReport(ctx context.Context, runID string, report domain.MissingAttachmentsReport) error
	MissingAttachmentsReport(ctx context.Context, runID string) (domain.MissingAttachmentsReport, error)
}

type PgReportRepository struct {
	pool *pgxpool.Pool
}

func NewPgReportRepository(pool *pgxpool.Pool) *PgReportRepository {
	return &PgReportRepository{pool: pool}
}

func (r *PgReportRepository) SaveRedactionReport(ctx context.Context, runID, contact string, report domain.RedactionReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO run_reports (run_id, contact, kind, body)
		VALUES ($1, $2, 'redaction', $3)
		ON CONFLICT (run_id, kind) DO UPDATE SET body = EXCLUDED.body
	`
	_, err = r.pool.Exec(ctx, query, runID, contact, body)
	return err
}

func (r *PgReportRepository) RedactionReport(ctx context.Context, runID string) (domain.RedactionReport, error) {
	var body []byte
	const query = `SELECT body FROM run_reports WHERE run_id = $1 AND kind = 'redaction'`
	if err := r.pool.QueryRow(ctx, query, runID).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RedactionReport{}, err
		}
		return domain.RedactionReport{}, err
	}
	var report domain.RedactionReport
	if err := json.Unmarshal(body, &report); err != nil {
		return domain.RedactionReport{}, err
	}
	return report, nil
}

func (r *PgReportRepository) SaveMissingAttachmentsReport(ctx context.Context, runID string, report domain.MissingAttachmentsReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO run_reports (run_id, contact, kind, body)
		VALUES ($1, $2, 'missing_attachments', $3)
		ON CONFLICT (run_id, kind) DO UPDATE SET body = EXCLUDED.body
	`
	_, err = r.pool.Exec(ctx, query, runID, report.Contact, body)
	return err
}

func (r *PgReportRepository) MissingAttachmentsReport(ctx context.Context, runID string) (domain.MissingAttachmentsReport, error) {
	var body []byte
	const query = `SELECT body FROM run_reports WHERE run_id = $1 AND kind = 'missing_attachments'`
	if err := r.pool.QueryRow(ctx, query, runID).Scan(&body); err != nil {
		return domain.MissingAttachmentsReport{}, err
	}
	var report domain.MissingAttachmentsReport
	if err := json.Unmarshal(body, &report); err != nil {
		return domain.MissingAttachmentsReport{}, err
	}
	return report, nil
}
