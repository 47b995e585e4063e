package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// StuckRefundIDs returns bookings whose refund is still INITIATED after
// the cutoff. The in-process settle timer is lost on restart; the cron
// sweep uses this to finish those refunds.
func (r *JobRepository) StuckRefundIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id FROM bookings
		WHERE refund_status = 'INITIATED' AND cancelled_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stuck refunds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stuck refunds: %w", err)
	}
	return ids, nil
}

func (r *JobRepository) CompleteRefunds(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := r.DB.ExecContext(ctx,
		`UPDATE bookings SET refund_status = 'COMPLETED' WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("completing refunds: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil {
		log.Printf("Completed %d stuck refunds", n)
	}
	return nil
}

// DeleteExpiredOTPs drops codes past their expiry.
func (r *JobRepository) DeleteExpiredOTPs(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM otp_codes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired otp codes: %w", err)
	}
	return result.RowsAffected()
}
