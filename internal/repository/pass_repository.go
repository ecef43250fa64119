package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/arvinth/campus-parking/internal/model"
)

// PassRepo provides data access to the monthly_passes and yearly_passes
// tables.  Both plans share a shape but live in separate tables so they
// can grow independent columns later.
type PassRepo struct {
	db *sql.DB
}

// NewPassRepo returns a new PassRepo bound to the given database.
func NewPassRepo(db *sql.DB) *PassRepo { return &PassRepo{db: db} }

// CreateMonthly inserts a monthly pass and returns the stored row.
// A second monthly pass for the same email is rejected with ErrDuplicate.
func (r *PassRepo) CreateMonthly(ctx context.Context, email, fullName, plate string) (model.MonthlyPass, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO monthly_passes (email, full_name, vehicle_plate) VALUES (?,?,?)",
		email, fullName, plate)
	if err != nil {
		if isDuplicateErr(err) {
			return model.MonthlyPass{}, ErrDuplicate
		}
		return model.MonthlyPass{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MonthlyPass{}, err
	}
	var p model.MonthlyPass
	err = r.db.QueryRowContext(ctx,
		"SELECT id, email, full_name, vehicle_plate, created_at FROM monthly_passes WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Email, &p.FullName, &p.VehiclePlate, &p.CreatedAt)
	return p, err
}

// CreateYearly inserts a yearly pass and returns the stored row.
func (r *PassRepo) CreateYearly(ctx context.Context, email, fullName, plate string) (model.YearlyPass, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO yearly_passes (email, full_name, vehicle_plate) VALUES (?,?,?)",
		email, fullName, plate)
	if err != nil {
		if isDuplicateErr(err) {
			return model.YearlyPass{}, ErrDuplicate
		}
		return model.YearlyPass{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.YearlyPass{}, err
	}
	var p model.YearlyPass
	err = r.db.QueryRowContext(ctx,
		"SELECT id, email, full_name, vehicle_plate, created_at FROM yearly_passes WHERE id=? LIMIT 1",
		id).Scan(&p.ID, &p.Email, &p.FullName, &p.VehiclePlate, &p.CreatedAt)
	return p, err
}

// ActivePassKind returns "yearly" or "monthly" when the email holds a
// pass, or "" when it holds none.  Yearly wins when both exist.
// Existence alone grants pass-holder status; expiry is not modelled.
func (r *PassRepo) ActivePassKind(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var monthly, yearly int
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM monthly_passes WHERE LOWER(email)=?),
		        EXISTS(SELECT 1 FROM yearly_passes WHERE LOWER(email)=?)`,
		email, email).Scan(&monthly, &yearly)
	if err != nil {
		return "", err
	}
	switch {
	case yearly == 1:
		return "yearly", nil
	case monthly == 1:
		return "monthly", nil
	default:
		return "", nil
	}
}

// HasActivePass reports whether the email holds a pass of either kind.
func (r *PassRepo) HasActivePass(ctx context.Context, email string) (bool, error) {
	kind, err := r.ActivePassKind(ctx, email)
	return kind != "", err
}

// isDuplicateErr detects a MySQL duplicate-key violation (error 1062).
func isDuplicateErr(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
