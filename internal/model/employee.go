package model

import "time"

// Employee is a staff record persisted through the new-employee endpoint.
// Employees are not involved in the cancellation flow.
type Employee struct {
	ID        uint64    // employees.id
	FullName  string    // employees.full_name
	Email     string    // employees.email
	Phone     string    // employees.phone
	Role      string    // employees.role
	CreatedAt time.Time // employees.created_at
}
