// This file defines the ParkingLocation model and its repository. A
// location is a parking lot listing created by an owner; it stays invisible
// to the public until an admin approves it. Approval state transitions go
// through SetApproval only, driven by an explicit ApprovalChange value so
// the column assignments are deterministic for either direction.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PricingModeHourly is the only pricing mode currently issued by the API.
// The column is a plain string so slab/daily modes can be added later.
const PricingModeHourly = "hourly"

// ParkingLocation mirrors one row of the 'parking_locations' table.
// Prices are stored in paise (the smallest currency unit) to avoid
// floating point money. Photos is persisted as a JSON array in a TEXT
// column; SlabPricing is an optional JSON document describing slab rates.
type ParkingLocation struct {
	ID                    uint64          `json:"id"`
	OwnerUserID           uint64          `json:"owner_user_id"`
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	Address               string          `json:"address"`
	City                  string          `json:"city"`
	State                 string          `json:"state"`
	Pincode               string          `json:"pincode"`
	Latitude              float64         `json:"latitude"`
	Longitude             float64         `json:"longitude"`
	Photos                []string        `json:"photos"`
	TotalSlots            int             `json:"total_slots"`
	AvailableSlots        int             `json:"available_slots"`
	PricingMode           string          `json:"pricing_mode"`
	BasePricePerHourPaise int64           `json:"base_price_per_hour_paise"`
	SlabPricing           json.RawMessage `json:"slab_pricing,omitempty"`
	Approved              bool            `json:"approved"`
	ApprovedBy            *uint64         `json:"approved_by"`
	ApprovedAt            *time.Time      `json:"approved_at"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// ApprovalChange is the tagged update payload for SetApproval. When
// Approve is true the AdminID/At pair records who approved and when; when
// false both are ignored and the corresponding columns are cleared.
type ApprovalChange struct {
	Approve bool
	AdminID uint64
	At      time.Time
}

// LocationRepo encapsulates all database queries related to parking
// locations. It depends on a sql.DB connection injected at startup (or a
// sqlmock handle in tests).
type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

const locationColumns = `id, owner_user_id, title, description, address, city, state, pincode,
	latitude, longitude, photos, total_slots, available_slots, pricing_mode,
	base_price_per_hour_paise, slab_pricing, approved, approved_by, approved_at,
	created_at, updated_at`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLocation(s scanner) (*ParkingLocation, error) {
	var (
		l          ParkingLocation
		photos     sql.NullString
		slab       sql.NullString
		approvedBy sql.NullInt64
		approvedAt sql.NullTime
	)
	err := s.Scan(&l.ID, &l.OwnerUserID, &l.Title, &l.Description, &l.Address, &l.City,
		&l.State, &l.Pincode, &l.Latitude, &l.Longitude, &photos, &l.TotalSlots,
		&l.AvailableSlots, &l.PricingMode, &l.BasePricePerHourPaise, &slab,
		&l.Approved, &approvedBy, &approvedAt, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if photos.Valid && photos.String != "" {
		if err := json.Unmarshal([]byte(photos.String), &l.Photos); err != nil {
			return nil, err
		}
	}
	if slab.Valid && slab.String != "" {
		l.SlabPricing = json.RawMessage(slab.String)
	}
	if approvedBy.Valid {
		v := uint64(approvedBy.Int64)
		l.ApprovedBy = &v
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		l.ApprovedAt = &t
	}
	return &l, nil
}

// marshalPhotos renders the photo reference list for storage. An empty
// list is stored as "[]" so reads never see NULL for new rows.
func marshalPhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a new location for an owner. Listings always start
// unapproved regardless of what the caller set on the struct. On success
// the ID is populated and a follow-up SELECT fills the DB-generated
// timestamp fields so callers receive a fully populated record.
func (r *LocationRepo) Create(ctx context.Context, l *ParkingLocation) error {
	photos, err := marshalPhotos(l.Photos)
	if err != nil {
		return err
	}
	var slab any
	if len(l.SlabPricing) > 0 {
		slab = string(l.SlabPricing)
	}
	const qInsert = `INSERT INTO parking_locations
		(owner_user_id, title, description, address, city, state, pincode,
		 latitude, longitude, photos, total_slots, available_slots, pricing_mode,
		 base_price_per_hour_paise, slab_pricing, approved)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0)`
	res, err := r.db.ExecContext(ctx, qInsert,
		l.OwnerUserID, l.Title, l.Description, l.Address, l.City, l.State, l.Pincode,
		l.Latitude, l.Longitude, photos, l.TotalSlots, l.AvailableSlots, l.PricingMode,
		l.BasePricePerHourPaise, slab)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)

	fresh, err := r.GetByID(ctx, l.ID)
	if err != nil {
		return err
	}
	*l = *fresh
	return nil
}

// GetByID fetches a location by id regardless of owner or approval state.
// It returns ErrLocationNotFound if no row exists.
func (r *LocationRepo) GetByID(ctx context.Context, id uint64) (*ParkingLocation, error) {
	const q = `SELECT ` + locationColumns + ` FROM parking_locations WHERE id = ?`
	l, err := scanLocation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// GetByIDApproved fetches a location only if it is approved. Nonexistent
// and unapproved rows are both reported as ErrLocationNotFound, which is
// what keeps unapproved listings undiscoverable through public reads.
func (r *LocationRepo) GetByIDApproved(ctx context.Context, id uint64) (*ParkingLocation, error) {
	const q = `SELECT ` + locationColumns + ` FROM parking_locations WHERE id = ? AND approved = 1`
	l, err := scanLocation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// GetByIDAndOwner fetches a location by id but only if it belongs to the
// specified owner. Rows owned by someone else are indistinguishable from
// missing ones.
func (r *LocationRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (*ParkingLocation, error) {
	const q = `SELECT ` + locationColumns + ` FROM parking_locations WHERE id = ? AND owner_user_id = ?`
	l, err := scanLocation(r.db.QueryRowContext(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	return l, nil
}

// ListByOwner returns all locations for one owner ordered by id.
func (r *LocationRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*ParkingLocation, error) {
	const q = `SELECT ` + locationColumns + ` FROM parking_locations WHERE owner_user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ParkingLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListApproved returns approved locations ordered by id, optionally
// filtered by city (exact match, case-insensitive via the column
// collation). Used by the public browsing endpoints.
func (r *LocationRepo) ListApproved(ctx context.Context, city string) ([]*ParkingLocation, error) {
	q := `SELECT ` + locationColumns + ` FROM parking_locations WHERE approved = 1`
	args := []any{}
	if city != "" {
		q += ` AND city = ?`
		args = append(args, city)
	}
	q += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ParkingLocation
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateByIDAndOwner rewrites the owner-editable fields (descriptive,
// capacity and pricing columns). Approval columns are untouched, so an
// approved listing stays approved through an edit. It returns
// sql.ErrNoRows when no row is affected (not found / not owned).
func (r *LocationRepo) UpdateByIDAndOwner(ctx context.Context, l *ParkingLocation, ownerID uint64) error {
	photos, err := marshalPhotos(l.Photos)
	if err != nil {
		return err
	}
	var slab any
	if len(l.SlabPricing) > 0 {
		slab = string(l.SlabPricing)
	}
	const q = `UPDATE parking_locations
		SET title = ?, description = ?, address = ?, city = ?, state = ?, pincode = ?,
		    latitude = ?, longitude = ?, photos = ?, total_slots = ?, available_slots = ?,
		    pricing_mode = ?, base_price_per_hour_paise = ?, slab_pricing = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_user_id = ?`
	res, err := r.db.ExecContext(ctx, q,
		l.Title, l.Description, l.Address, l.City, l.State, l.Pincode,
		l.Latitude, l.Longitude, photos, l.TotalSlots, l.AvailableSlots,
		l.PricingMode, l.BasePricePerHourPaise, slab,
		l.ID, ownerID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByIDAndOwner removes a location owned by the given user. Missing
// row -> sql.ErrNoRows; row owned by someone else -> ErrForbidden.
func (r *LocationRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID uint64) error {
	var dbOwnerID uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT owner_user_id FROM parking_locations WHERE id = ?`, id).Scan(&dbOwnerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	if dbOwnerID != ownerID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM parking_locations WHERE id = ?`, id)
	return err
}

// SetApproval applies an ApprovalChange to one location. Approving sets
// approved=1 and records who/when; unapproving sets approved=0 and clears
// both columns. updated_at is refreshed either way. It returns
// sql.ErrNoRows when the update affects zero rows, which can happen if the
// row was deleted after the caller's existence check; that race is
// reported, not retried.
func (r *LocationRepo) SetApproval(ctx context.Context, id uint64, change ApprovalChange) error {
	var (
		res sql.Result
		err error
	)
	if change.Approve {
		const q = `UPDATE parking_locations
			SET approved = 1, approved_by = ?, approved_at = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`
		res, err = r.db.ExecContext(ctx, q, change.AdminID, change.At, id)
	} else {
		const q = `UPDATE parking_locations
			SET approved = 0, approved_by = NULL, approved_at = NULL, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`
		res, err = r.db.ExecContext(ctx, q, id)
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Availability returns the available slot count and last update time for
// an approved location. Unapproved and missing rows both come back as
// ErrLocationNotFound.
func (r *LocationRepo) Availability(ctx context.Context, id uint64) (int, time.Time, error) {
	const q = `SELECT available_slots, updated_at FROM parking_locations WHERE id = ? AND approved = 1`
	var (
		slots     int
		updatedAt time.Time
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&slots, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, time.Time{}, ErrLocationNotFound
		}
		return 0, time.Time{}, err
	}
	return slots, updatedAt, nil
}
