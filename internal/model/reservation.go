package model

import "time"

// Reservation records a claim on a parking spot as stored in the
// `reservations` table.  A reservation carries the credential needed to
// cancel it and the scan state used by the QR confirmation protocol.
//
// Lifecycle: created by the reserve endpoint; `IsScanned` flips to true
// exactly once when the confirmation link is opened; the row is removed
// either immediately (pass holders) or by the polling client after the
// scan is observed.
//
// Fields:
//  ID           – primary key identifier.
//  SpotID       – parking spot being reserved (join key of the protocol).
//  Email        – owner email, stored lowercased.
//  PasswordHash – bcrypt hash of the cancellation password.
//  IsScanned    – whether the confirmation link has been opened.
//  ConfirmToken – single-use opaque token embedded in the QR link
//                 (nil until a cancellation is initiated).
//  CreatedAt    – creation timestamp.
type Reservation struct {
	ID           uint64    // reservations.id
	SpotID       string    // reservations.spot_id
	Email        string    // reservations.email
	PasswordHash string    // reservations.password_hash
	IsScanned    bool      // reservations.is_scanned
	ConfirmToken *string   // reservations.confirm_token (nullable)
	CreatedAt    time.Time // reservations.created_at
}
