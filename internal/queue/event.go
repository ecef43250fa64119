// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationCancelledEvent is published whenever a reservation row is
// actually removed: immediately for pass holders, or at the polling step
// for scan-confirmed cancellations.  It contains enough information for
// downstream consumers to log or trigger analytics without querying the
// primary database.
type ReservationCancelledEvent struct {
    EventID       string `json:"event_id"`
    ReservationID uint64 `json:"reservation_id"`
    SpotID        string `json:"spot_id"`
    Email         string `json:"email"`
    PassHolder    bool   `json:"pass_holder"`
    CancelledAt   string `json:"cancelled_at"`
}
