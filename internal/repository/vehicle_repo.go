package repository

import (
	"context"
	"database/sql"
	"fmt"

	"parkease/internal/db"
)

type VehicleRepository struct {
	DB *sql.DB
}

func NewVehicleRepository(database *sql.DB) *VehicleRepository {
	return &VehicleRepository{DB: database}
}

func (r *VehicleRepository) ListByUser(ctx context.Context, userID string) ([]db.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_id, vehicle_number, type, nickname, created_at
		FROM vehicles WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []db.Vehicle
	for rows.Next() {
		var v db.Vehicle
		if err := rows.Scan(&v.ID, &v.UserID, &v.VehicleNumber, &v.Type, &v.Nickname, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vehicles: %w", err)
	}
	return vehicles, nil
}

func (r *VehicleRepository) Create(ctx context.Context, v *db.Vehicle) error {
	query := `
		INSERT INTO vehicles (id, user_id, vehicle_number, type, nickname, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query, v.ID, v.UserID, v.VehicleNumber, v.Type, v.Nickname).
		Scan(&v.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting vehicle: %w", err)
	}
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.DB.ExecContext(ctx,
		`DELETE FROM vehicles WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("deleting vehicle: %w", err)
	}
	return nil
}
