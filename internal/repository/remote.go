package repository

import (
	"context"
	"database/sql"
	"log"

	"parkease/internal/catalog"
	"parkease/internal/db"
	"parkease/internal/state"
)

// RemoteStore implements state.Remote on top of the Postgres
// repositories: the hosted-database side of the dual-mode persistence
// port. Rows are the flat remote record shapes; this layer reassembles
// them into the store's richer booking values (lot snapshot, vehicle).
type RemoteStore struct {
	users    *UserRepository
	vehicles *VehicleRepository
	bookings *BookingRepository
	lots     *LotRepository
}

func NewRemoteStore(users *UserRepository, vehicles *VehicleRepository, bookings *BookingRepository, lots *LotRepository) *RemoteStore {
	return &RemoteStore{users: users, vehicles: vehicles, bookings: bookings, lots: lots}
}

func (r *RemoteStore) LoadUserData(ctx context.Context, mobile string) ([]state.Vehicle, []state.Booking, error) {
	userID, err := r.users.UpsertUser(ctx, mobile)
	if err != nil {
		return nil, nil, err
	}

	vehicleRows, err := r.vehicles.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	vehicles := make([]state.Vehicle, 0, len(vehicleRows))
	for _, row := range vehicleRows {
		vehicles = append(vehicles, vehicleFromRow(row))
	}

	bookingRows, err := r.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	bookings := make([]state.Booking, 0, len(bookingRows))
	for _, row := range bookingRows {
		bookings = append(bookings, r.bookingFromRow(ctx, row, vehicles))
	}
	return vehicles, bookings, nil
}

func (r *RemoteStore) SaveVehicle(ctx context.Context, mobile string, v state.Vehicle) error {
	userID, err := r.users.UpsertUser(ctx, mobile)
	if err != nil {
		return err
	}
	row := &db.Vehicle{
		ID:            v.ID,
		UserID:        userID,
		VehicleNumber: v.Number,
		Type:          string(v.Type),
		Nickname:      nullString(v.Nickname),
	}
	return r.vehicles.Create(ctx, row)
}

func (r *RemoteStore) DeleteVehicle(ctx context.Context, mobile, id string) error {
	userID, err := r.users.UpsertUser(ctx, mobile)
	if err != nil {
		return err
	}
	return r.vehicles.Delete(ctx, userID, id)
}

func (r *RemoteStore) SaveBooking(ctx context.Context, mobile string, b state.Booking) error {
	userID, err := r.users.UpsertUser(ctx, mobile)
	if err != nil {
		return err
	}
	row := &db.Booking{
		ID:             b.ID,
		UserID:         userID,
		LotID:          b.LotID,
		SlotLabel:      b.SlotLabel,
		VehicleNumber:  b.Vehicle.Number,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		AmountPaid:     b.Amount,
		Status:         string(b.Status),
		PaymentRef:     nullString(b.PaymentRef),
		QRToken:        nullString(b.QRToken),
		RefundStatus:   nullString(string(b.RefundStatus)),
		RefundAmount:   nullInt(b.RefundAmount, b.RefundStatus != ""),
		OverstayAmount: nullInt(b.OverstayAmount, b.OverstayAmount > 0),
	}
	if b.CancelledAt != nil {
		row.CancelledAt = sql.NullTime{Time: *b.CancelledAt, Valid: true}
	}
	if b.CheckedInAt != nil {
		row.CheckedInAt = sql.NullTime{Time: *b.CheckedInAt, Valid: true}
	}
	if b.CheckedOutAt != nil {
		row.CheckedOutAt = sql.NullTime{Time: *b.CheckedOutAt, Valid: true}
	}
	return r.bookings.Save(ctx, row)
}

func (r *RemoteStore) bookingFromRow(ctx context.Context, row db.Booking, vehicles []state.Vehicle) state.Booking {
	b := state.Booking{
		ID:         row.ID,
		LotID:      row.LotID,
		SlotLabel:  row.SlotLabel,
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
		Status:     state.BookingStatus(row.Status),
		Amount:     row.AmountPaid,
		PaymentRef: row.PaymentRef.String,
		QRToken:    row.QRToken.String,
	}
	if row.RefundStatus.Valid {
		b.RefundStatus = state.RefundStatus(row.RefundStatus.String)
	}
	if row.RefundAmount.Valid {
		b.RefundAmount = int(row.RefundAmount.Int64)
	}
	if row.OverstayAmount.Valid {
		b.OverstayAmount = int(row.OverstayAmount.Int64)
	}
	if row.CancelledAt.Valid {
		t := row.CancelledAt.Time
		b.CancelledAt = &t
	}
	if row.CheckedInAt.Valid {
		t := row.CheckedInAt.Time
		b.CheckedInAt = &t
	}
	if row.CheckedOutAt.Valid {
		t := row.CheckedOutAt.Time
		b.CheckedOutAt = &t
	}

	lot, err := r.lots.GetLot(ctx, row.LotID)
	if err != nil {
		log.Printf("Lot %s not in lots table, falling back to catalog: %v", row.LotID, err)
		if cl, ok := catalog.LotByID(row.LotID); ok {
			lot = cl
		}
	}
	b.Lot = lot

	b.Vehicle = state.Vehicle{Number: row.VehicleNumber}
	for _, v := range vehicles {
		if v.Number == row.VehicleNumber {
			b.Vehicle = v
			b.VehicleID = v.ID
			break
		}
	}
	return b
}

func vehicleFromRow(row db.Vehicle) state.Vehicle {
	return state.Vehicle{
		ID:       row.ID,
		Type:     state.VehicleType(row.Type),
		Number:   row.VehicleNumber,
		Nickname: row.Nickname.String,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n int, valid bool) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: valid}
}

var _ state.Remote = (*RemoteStore)(nil)
