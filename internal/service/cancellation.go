// Package service implements the cancellation state machine that spans the
// cancel-reservation, mark-as-scanned and check-scan-status endpoints.
//
// Per reservation the states are ACTIVE -> AWAITING_SCAN -> SCANNED ->
// DELETED, where AWAITING_SCAN is a reservation armed with a confirmation
// token, SCANNED is the is_scanned flag set by the scanning device, and
// DELETED is reached when the polling client observes the scan.  Pass
// holders skip the QR round trip and go straight from ACTIVE to DELETED.
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arvinth/campus-parking/internal/model"
	"github.com/arvinth/campus-parking/internal/queue"
	"github.com/arvinth/campus-parking/internal/utils"
)

// ErrPasswordMismatch is returned by Initiate when the supplied password
// does not verify against the reservation's stored hash.  Handlers should
// translate this into an HTTP 401 response.
var ErrPasswordMismatch = errors.New("incorrect cancellation password")

// ErrAlreadyConfirmed is returned by Initiate when the reservation's QR
// link has already been scanned and the cancellation is only waiting for
// the status poll to remove the row.  Handlers should translate this into
// an HTTP 409 response.
var ErrAlreadyConfirmed = errors.New("cancellation already confirmed")

// ReservationStore is the subset of reservation persistence the state
// machine needs.  Every transition method must be atomic: the store
// decides a transition with a single conditional statement and reports
// whether it happened.
type ReservationStore interface {
	FindForCancellation(ctx context.Context, spotID, email string) (model.Reservation, error)
	ArmConfirmation(ctx context.Context, id uint64, token string) error
	ConfirmByToken(ctx context.Context, token string) (bool, error)
	ConfirmLatestForSpot(ctx context.Context, spotID string) (bool, error)
	DeleteConfirmed(ctx context.Context, spotID string) (model.Reservation, bool, error)
	Delete(ctx context.Context, id uint64) error
}

// PassStore answers pass-holder lookups.  Kind is "monthly", "yearly" or
// "" for no pass.
type PassStore interface {
	ActivePassKind(ctx context.Context, email string) (string, error)
}

// LinkEncoder renders a confirmation link into a scannable image and
// returns a path the frontend can resolve.
type LinkEncoder interface {
	Encode(payload, fileName string) (string, error)
}

// EventPublisher receives an audit event each time a reservation row is
// actually removed.
type EventPublisher interface {
	PublishCancelled(ctx context.Context, event queue.ReservationCancelledEvent) error
}

// Cancellation orchestrates the three-step cancel/confirm/poll protocol.
type Cancellation struct {
	store       ReservationStore
	passes      PassStore
	encoder     LinkEncoder
	events      EventPublisher
	scanBaseURL string
}

// NewCancellation constructs the state machine.  store, passes and encoder
// must be non-nil; events may be nil when no broker is configured.
func NewCancellation(store ReservationStore, passes PassStore, encoder LinkEncoder, events EventPublisher, scanBaseURL string) *Cancellation {
	if store == nil || passes == nil || encoder == nil {
		panic("nil dependency passed to NewCancellation")
	}
	return &Cancellation{
		store:       store,
		passes:      passes,
		encoder:     encoder,
		events:      events,
		scanBaseURL: strings.TrimRight(scanBaseURL, "/"),
	}
}

// InitiateResult is what the cancel-reservation endpoint returns to the
// client.  QRPath is empty on the pass-holder path.
type InitiateResult struct {
	Message string
	QRPath  string
}

// Initiate starts a cancellation for the reservation matching spot and
// email.  The password must verify against the stored bcrypt hash.  Pass
// holders have their row deleted synchronously and receive no QR; everyone
// else gets a QR image whose link carries a fresh single-use confirmation
// token, and the row stays in place until the polling client observes the
// scan.  Re-initiating after the link was scanned but before the poll
// lands reports ErrAlreadyConfirmed.  A scan arriving between that check
// and ArmConfirmation still loses the 0-rows branch of ArmConfirmation
// and surfaces as not-found; the poll removes the row moments later
// either way.
func (s *Cancellation) Initiate(ctx context.Context, spotID, email, password string) (InitiateResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	rec, err := s.store.FindForCancellation(ctx, spotID, email)
	if err != nil {
		return InitiateResult{}, err
	}
	if !utils.VerifyPassword(rec.PasswordHash, password) {
		return InitiateResult{}, ErrPasswordMismatch
	}

	kind, err := s.passes.ActivePassKind(ctx, email)
	if err != nil {
		return InitiateResult{}, err
	}
	if kind != "" {
		if err := s.store.Delete(ctx, rec.ID); err != nil {
			return InitiateResult{}, err
		}
		s.publishCancelled(ctx, rec, true)
		return InitiateResult{Message: passHolderMessage(kind)}, nil
	}

	if rec.IsScanned {
		return InitiateResult{}, ErrAlreadyConfirmed
	}

	token, err := newConfirmToken()
	if err != nil {
		return InitiateResult{}, err
	}
	if err := s.store.ArmConfirmation(ctx, rec.ID, token); err != nil {
		return InitiateResult{}, err
	}

	link := fmt.Sprintf("%s/v1/mark-as-scanned/%s?token=%s",
		s.scanBaseURL, url.PathEscape(spotID), token)
	// File name includes the spot id so concurrent cancellations for
	// different spots do not overwrite each other's image.
	qrPath, err := s.encoder.Encode(link, qrFileName(spotID))
	if err != nil {
		return InitiateResult{}, err
	}
	return InitiateResult{
		Message: "Scan the QR code from another device to confirm cancellation.",
		QRPath:  qrPath,
	}, nil
}

// Confirm is invoked by the device that opened the QR link.  With a token
// it resolves the exact reservation the link was issued for; without one
// it falls back to the most recently created unscanned reservation for the
// spot.  It reports whether a reservation transitioned to SCANNED; a
// repeat call, a stale token or an unknown spot all report false without
// an error, keeping the endpoint idempotent for the scanning device.
func (s *Cancellation) Confirm(ctx context.Context, spotID, token string) (bool, error) {
	if token != "" {
		return s.store.ConfirmByToken(ctx, token)
	}
	return s.store.ConfirmLatestForSpot(ctx, spotID)
}

// Poll is invoked repeatedly by the original client.  When a scanned
// reservation exists for the spot it is deleted in the same conditional
// operation and Poll reports true exactly once; every other call reports
// false, including calls after the row is already gone.
func (s *Cancellation) Poll(ctx context.Context, spotID string) (bool, error) {
	rec, deleted, err := s.store.DeleteConfirmed(ctx, spotID)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}
	s.publishCancelled(ctx, rec, false)
	return true, nil
}

// publishCancelled emits the audit event for an actually removed row.
// Publish failures are deliberately ignored: the database is the source of
// truth and the cancellation has already happened.
func (s *Cancellation) publishCancelled(ctx context.Context, rec model.Reservation, passHolder bool) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishCancelled(ctx, queue.ReservationCancelledEvent{
		EventID:       uuid.NewString(),
		ReservationID: rec.ID,
		SpotID:        rec.SpotID,
		Email:         rec.Email,
		PassHolder:    passHolder,
		CancelledAt:   time.Now().UTC().Format(time.RFC3339),
	})
}

func passHolderMessage(kind string) string {
	if kind == "yearly" {
		return "Reservation cancelled. Thanks for being a Yearly Pass holder!"
	}
	return "Reservation cancelled. Thanks for being a Monthly Pass holder!"
}

// qrFileName builds the image name for a spot.  Spot ids are
// client-supplied, so any id that is not plain [A-Za-z0-9_-] is
// hex-encoded instead of trusted near a file path.
func qrFileName(spotID string) string {
	for _, r := range spotID {
		safe := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_'
		if !safe {
			return "cancel_" + hex.EncodeToString([]byte(spotID)) + ".png"
		}
	}
	return "cancel_" + spotID + ".png"
}

// newConfirmToken generates the opaque single-use token embedded in the
// confirmation link.  32 random bytes rendered as hex.
func newConfirmToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
