package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/arvinth/campus-parking/internal/model"
)

// EmployeeRepo provides data access to the employees table.
type EmployeeRepo struct {
	db *sql.DB
}

// NewEmployeeRepo returns a new EmployeeRepo bound to the given database.
func NewEmployeeRepo(db *sql.DB) *EmployeeRepo { return &EmployeeRepo{db: db} }

// Create inserts an employee record and returns the stored row.
func (r *EmployeeRepo) Create(ctx context.Context, fullName, email, phone, role string) (model.Employee, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO employees (full_name, email, phone, role) VALUES (?,?,?,?)",
		fullName, email, phone, role)
	if err != nil {
		if isDuplicateErr(err) {
			return model.Employee{}, ErrDuplicate
		}
		return model.Employee{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Employee{}, err
	}
	var e model.Employee
	err = r.db.QueryRowContext(ctx,
		"SELECT id, full_name, email, phone, role, created_at FROM employees WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.FullName, &e.Email, &e.Phone, &e.Role, &e.CreatedAt)
	return e, err
}
