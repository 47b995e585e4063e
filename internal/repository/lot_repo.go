package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"parkease/internal/catalog"
	"parkease/internal/state"
)

type LotRepository struct {
	DB *sql.DB
}

func NewLotRepository(database *sql.DB) *LotRepository {
	return &LotRepository{DB: database}
}

const lotColumns = `id, name, address, distance, price_per_hour, availability,
	total_slots, available_slots, vehicle_types, amenities, rating, reviews,
	open_time, close_time`

func (r *LotRepository) ListLots(ctx context.Context) ([]state.ParkingLot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+lotColumns+` FROM parking_lots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying lots: %w", err)
	}
	defer rows.Close()

	var lots []state.ParkingLot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lots: %w", err)
	}
	return lots, nil
}

func (r *LotRepository) GetLot(ctx context.Context, id string) (state.ParkingLot, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+lotColumns+` FROM parking_lots WHERE id = $1`, id)
	lot, err := scanLot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.ParkingLot{}, fmt.Errorf("lot '%s' not found: %w", id, err)
		}
		return state.ParkingLot{}, err
	}
	return lot, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (state.ParkingLot, error) {
	var lot state.ParkingLot
	var vehicleTypes, amenities []string
	err := row.Scan(
		&lot.ID, &lot.Name, &lot.Address, &lot.Distance, &lot.PricePerHour,
		&lot.Availability, &lot.TotalSlots, &lot.AvailableSlots,
		pq.Array(&vehicleTypes), pq.Array(&amenities),
		&lot.Rating, &lot.Reviews, &lot.OpenTime, &lot.CloseTime,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.ParkingLot{}, err
		}
		return state.ParkingLot{}, fmt.Errorf("scanning lot: %w", err)
	}
	for _, vt := range vehicleTypes {
		lot.VehicleTypes = append(lot.VehicleTypes, state.VehicleType(vt))
	}
	lot.Amenities = amenities
	return lot, nil
}

func (r *LotRepository) ListSlots(ctx context.Context, lotID string) ([]catalog.ParkingSlot, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, label, status, row_label, position
		FROM slots WHERE lot_id = $1
		ORDER BY row_label, position`, lotID)
	if err != nil {
		return nil, fmt.Errorf("querying slots: %w", err)
	}
	defer rows.Close()

	var slots []catalog.ParkingSlot
	for rows.Next() {
		var s catalog.ParkingSlot
		if err := rows.Scan(&s.ID, &s.Label, &s.Status, &s.Row, &s.Position); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}
	return slots, nil
}

// OccupiedLabels returns the slot labels with a non-cancelled booking
// overlapping [start, end) in the given lot.
func (r *LotRepository) OccupiedLabels(ctx context.Context, lotID string, start, end time.Time) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT slot_label FROM bookings
		WHERE lot_id = $1
		  AND start_time < $3
		  AND end_time > $2
		  AND status <> 'CANCELLED'
		  AND slot_label <> ''`, lotID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying occupied slots: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scanning slot label: %w", err)
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slot labels: %w", err)
	}
	return labels, nil
}
