package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/woundtrack/ehr-api/internal/repository"
)

type reportRepository struct {
	BaseRepository
}

func NewReportRepository(db *sqlx.DB) repository.ReportRepository {
	return &reportRepository{NewBaseRepository(db)}
}

func (r *reportRepository) VisitVolume(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) AS n
		FROM visits
		WHERE tenant_id = $1 AND visit_date >= $2 AND visit_date <= $3 AND deleted_at IS NULL
		GROUP BY status
	`
	rows, err := r.db.QueryxContext(ctx, query, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query visit volume: %w", err)
	}
	defer rows.Close()

	volume := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan visit volume row: %w", err)
		}
		volume[status] = n
	}
	return volume, rows.Err()
}
