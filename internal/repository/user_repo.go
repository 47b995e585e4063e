package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"parkease/internal/db"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(database *sql.DB) *UserRepository {
	return &UserRepository{DB: database}
}

// UpsertUser returns the user id for a phone number, creating the user on
// first sight.
func (r *UserRepository) UpsertUser(ctx context.Context, phone string) (string, error) {
	query := `
		INSERT INTO users (id, phone, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING id`
	var id string
	if err := r.DB.QueryRowContext(ctx, query, uuid.NewString(), phone).Scan(&id); err != nil {
		return "", fmt.Errorf("upserting user: %w", err)
	}
	return id, nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*db.User, error) {
	var u db.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, phone, created_at FROM users WHERE phone = $1`, phone).
		Scan(&u.ID, &u.Phone, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) SaveOTP(ctx context.Context, phone, codeHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO otp_codes (id, phone, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())`
	if _, err := r.DB.ExecContext(ctx, query, uuid.NewString(), phone, codeHash, expiresAt); err != nil {
		return fmt.Errorf("saving otp code: %w", err)
	}
	return nil
}

// LatestOTP returns the most recent code issued to a phone, or nil.
func (r *UserRepository) LatestOTP(ctx context.Context, phone string) (*db.OTPCode, error) {
	var c db.OTPCode
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, phone, code_hash, expires_at, created_at
		FROM otp_codes WHERE phone = $1
		ORDER BY created_at DESC LIMIT 1`, phone).
		Scan(&c.ID, &c.Phone, &c.CodeHash, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying otp code: %w", err)
	}
	return &c, nil
}

func (r *UserRepository) DeleteOTPs(ctx context.Context, phone string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM otp_codes WHERE phone = $1`, phone); err != nil {
		return fmt.Errorf("deleting otp codes: %w", err)
	}
	return nil
}
