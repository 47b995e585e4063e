package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkease/internal/db"
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

// Save upserts a booking row. The booking core mirrors every lifecycle
// mutation through here, so an insert-or-update keyed on the booking code
// covers confirm, check-in, check-out, cancel and refund completion alike.
func (r *BookingRepository) Save(ctx context.Context, b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(id, user_id, lot_id, slot_label, vehicle_number, start_time, end_time,
		 amount_paid, status, payment_ref, qr_token, refund_amount, refund_status,
		 overstay_amount, cancelled_at, checked_in_at, checked_out_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			refund_amount = EXCLUDED.refund_amount,
			refund_status = EXCLUDED.refund_status,
			overstay_amount = EXCLUDED.overstay_amount,
			cancelled_at = EXCLUDED.cancelled_at,
			checked_in_at = EXCLUDED.checked_in_at,
			checked_out_at = EXCLUDED.checked_out_at`
	_, err := r.DB.ExecContext(ctx, query,
		b.ID, b.UserID, b.LotID, b.SlotLabel, b.VehicleNumber,
		b.StartTime, b.EndTime, b.AmountPaid, b.Status, b.PaymentRef, b.QRToken,
		b.RefundAmount, b.RefundStatus, b.OverstayAmount,
		b.CancelledAt, b.CheckedInAt, b.CheckedOutAt,
	)
	if err != nil {
		return fmt.Errorf("saving booking %s: %w", b.ID, err)
	}
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]db.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, lot_id, slot_label, vehicle_number, start_time, end_time,
		       amount_paid, status, payment_ref, qr_token, refund_amount, refund_status,
		       overstay_amount, cancelled_at, checked_in_at, checked_out_at, created_at
		FROM bookings WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []db.Booking
	for rows.Next() {
		var b db.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.LotID, &b.SlotLabel, &b.VehicleNumber,
			&b.StartTime, &b.EndTime, &b.AmountPaid, &b.Status, &b.PaymentRef, &b.QRToken,
			&b.RefundAmount, &b.RefundStatus, &b.OverstayAmount,
			&b.CancelledAt, &b.CheckedInAt, &b.CheckedOutAt, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*db.Booking, error) {
	var b db.Booking
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, lot_id, slot_label, vehicle_number, start_time, end_time,
		       amount_paid, status, payment_ref, qr_token, refund_amount, refund_status,
		       overstay_amount, cancelled_at, checked_in_at, checked_out_at, created_at
		FROM bookings WHERE id = $1`, id).
		Scan(
			&b.ID, &b.UserID, &b.LotID, &b.SlotLabel, &b.VehicleNumber,
			&b.StartTime, &b.EndTime, &b.AmountPaid, &b.Status, &b.PaymentRef, &b.QRToken,
			&b.RefundAmount, &b.RefundStatus, &b.OverstayAmount,
			&b.CancelledAt, &b.CheckedInAt, &b.CheckedOutAt, &b.CreatedAt,
		)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking '%s' not found: %w", id, err)
		}
		return nil, fmt.Errorf("querying booking: %w", err)
	}
	return &b, nil
}
