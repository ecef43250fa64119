package model

import "time"

// MonthlyPass represents a row in the `monthly_passes` table.  The mere
// existence of a pass row for an email grants pass-holder status during
// cancellation; expiry is not checked anywhere in this service.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – holder email, stored lowercased.
//  FullName     – name printed on the pass.
//  VehiclePlate – registration plate of the holder's vehicle.
//  CreatedAt    – purchase timestamp.
type MonthlyPass struct {
	ID           uint64    // monthly_passes.id
	Email        string    // monthly_passes.email
	FullName     string    // monthly_passes.full_name
	VehiclePlate string    // monthly_passes.vehicle_plate
	CreatedAt    time.Time // monthly_passes.created_at
}

// YearlyPass represents a row in the `yearly_passes` table.  It has the
// same shape as MonthlyPass but lives in its own table so the two plans
// can diverge independently.
type YearlyPass struct {
	ID           uint64    // yearly_passes.id
	Email        string    // yearly_passes.email
	FullName     string    // yearly_passes.full_name
	VehiclePlate string    // yearly_passes.vehicle_plate
	CreatedAt    time.Time // yearly_passes.created_at
}
