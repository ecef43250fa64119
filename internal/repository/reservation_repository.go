package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/arvinth/campus-parking/internal/model"
	"github.com/arvinth/campus-parking/internal/utils"
)

// ReservationRepo provides data access to the reservations table.  The
// cancellation protocol is driven entirely by single-statement conditional
// updates and deletes: the affected-row count decides whether a state
// transition happened, so two concurrent requests can never both claim the
// same transition.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a reservation, hashing the cancellation password with
// bcrypt before it touches the database.  The email is normalized to
// lower case so later lookups are case-insensitive.  It returns the
// stored row with its generated ID and timestamp populated.
func (r *ReservationRepo) Create(ctx context.Context, spotID, email, password string, cost int) (model.Reservation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Reservation{}, err
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reservations (spot_id, email, password_hash) VALUES (?,?,?)",
		spotID, email, hash)
	if err != nil {
		return model.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Reservation{}, err
	}
	return r.getByID(ctx, uint64(id))
}

func (r *ReservationRepo) getByID(ctx context.Context, id uint64) (model.Reservation, error) {
	var rec model.Reservation
	var token sql.NullString
	err := r.db.QueryRowContext(ctx,
		"SELECT id, spot_id, email, password_hash, is_scanned, confirm_token, created_at FROM reservations WHERE id=? LIMIT 1",
		id).Scan(&rec.ID, &rec.SpotID, &rec.Email, &rec.PasswordHash, &rec.IsScanned, &token, &rec.CreatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if token.Valid {
		t := token.String
		rec.ConfirmToken = &t
	}
	return rec, nil
}

// FindForCancellation returns the most recent reservation for the given
// spot and email.  Emails are compared case-insensitively.  When no row
// matches it returns ErrReservationNotFound so handlers can answer 404
// without leaking whether the spot or the email was wrong.
func (r *ReservationRepo) FindForCancellation(ctx context.Context, spotID, email string) (model.Reservation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var rec model.Reservation
	var token sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, spot_id, email, password_hash, is_scanned, confirm_token, created_at
		   FROM reservations WHERE spot_id=? AND LOWER(email)=? ORDER BY id DESC LIMIT 1`,
		spotID, email).Scan(&rec.ID, &rec.SpotID, &rec.Email, &rec.PasswordHash, &rec.IsScanned, &token, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrReservationNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	if token.Valid {
		t := token.String
		rec.ConfirmToken = &t
	}
	return rec, nil
}

// ArmConfirmation stores the single-use confirmation token on a still
// unscanned reservation.  Arming an already scanned or missing row is a
// no-op reported through ErrReservationNotFound.
func (r *ReservationRepo) ArmConfirmation(ctx context.Context, id uint64, token string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET confirm_token=? WHERE id=? AND is_scanned=0",
		token, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ConfirmByToken flips is_scanned on the reservation carrying the given
// confirmation token.  The token is cleared in the same statement so the
// link cannot confirm twice.  It reports whether a transition happened;
// a stale or unknown token simply reports false.
func (r *ReservationRepo) ConfirmByToken(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET is_scanned=1, confirm_token=NULL WHERE confirm_token=? AND is_scanned=0",
		token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ConfirmLatestForSpot flips is_scanned on the most recently created
// unscanned reservation for a spot.  It exists for confirmation links
// that carry no token; when several unscanned rows share a spot the
// newest wins, matching the insertion-order tiebreak of the protocol.
func (r *ReservationRepo) ConfirmLatestForSpot(ctx context.Context, spotID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE reservations SET is_scanned=1, confirm_token=NULL WHERE spot_id=? AND is_scanned=0 ORDER BY id DESC LIMIT 1",
		spotID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteConfirmed removes the most recent scanned reservation for a spot
// and returns the removed row.  The preceding SELECT only fetches
// metadata for the caller; the conditional DELETE on (id, is_scanned) is
// the sole arbiter of the transition, so two concurrent pollers cannot
// both observe the same scan.
func (r *ReservationRepo) DeleteConfirmed(ctx context.Context, spotID string) (model.Reservation, bool, error) {
	var rec model.Reservation
	err := r.db.QueryRowContext(ctx,
		"SELECT id, spot_id, email, created_at FROM reservations WHERE spot_id=? AND is_scanned=1 ORDER BY id DESC LIMIT 1",
		spotID).Scan(&rec.ID, &rec.SpotID, &rec.Email, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, false, nil
	}
	if err != nil {
		return model.Reservation{}, false, err
	}
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM reservations WHERE id=? AND is_scanned=1", rec.ID)
	if err != nil {
		return model.Reservation{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Reservation{}, false, err
	}
	rec.IsScanned = true
	return rec, n > 0, nil
}

// Delete removes a reservation by ID.  Used on the pass-holder path where
// cancellation completes without a scan.  Deleting an already removed row
// returns ErrReservationNotFound.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrReservationNotFound
	}
	return nil
}
