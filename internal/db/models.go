package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID        string
	Phone     string
	CreatedAt time.Time
}

type OTPCode struct {
	ID        string
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Vehicle struct {
	ID            string
	UserID        string
	VehicleNumber string
	Type          string
	Nickname      sql.NullString
	CreatedAt     time.Time
}

type Booking struct {
	ID             string
	UserID         string
	LotID          string
	SlotLabel      string
	VehicleNumber  string
	StartTime      time.Time
	EndTime        time.Time
	AmountPaid     int
	Status         string
	PaymentRef     sql.NullString
	QRToken        sql.NullString
	RefundAmount   sql.NullInt64
	RefundStatus   sql.NullString
	OverstayAmount sql.NullInt64
	CancelledAt    sql.NullTime
	CheckedInAt    sql.NullTime
	CheckedOutAt   sql.NullTime
	CreatedAt      time.Time
}

type Slot struct {
	ID     string
	LotID  string
	Label  string
	Status string
}
