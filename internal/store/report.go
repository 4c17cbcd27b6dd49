package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/tunebox/apiserver/types"
)

// ReportRepository handles persistence for user reports.
type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report types.UserReport) (types.UserReport, error) {
	report.CreatedAt = time.Now()

	const query = `
		INSERT INTO user_reports (reporter_id, reported_user_id, category, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		report.ReporterID,
		report.ReportedUserID,
		report.Category,
		report.Description,
		report.CreatedAt,
	).Scan(&report.ID); err != nil {
		return types.UserReport{}, err
	}
	return report, nil
}

func (r *ReportRepository) List(ctx context.Context, offset, limit int) ([]types.UserReport, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	const countQuery = `SELECT COUNT(1) FROM user_reports`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const listQuery = `
		SELECT id, reporter_id, reported_user_id, category, description, created_at
		FROM user_reports
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`
	rows, err := r.db.QueryContext(ctx, listQuery, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	reports := make([]types.UserReport, 0, limit)
	for rows.Next() {
		var report types.UserReport
		if err := rows.Scan(
			&report.ID,
			&report.ReporterID,
			&report.ReportedUserID,
			&report.Category,
			&report.Description,
			&report.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}
