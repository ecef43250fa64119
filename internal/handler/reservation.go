package handler

import (
	"context"  // context with cancellation for DB calls
	"net/http" // HTTP status codes and primitives
	"strings"  // string normalization utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/arvinth/campus-parking/internal/config"     // app configuration
	"github.com/arvinth/campus-parking/internal/repository" // DB repositories
)

// ReservationHandler bundles dependencies for the reserve endpoint.
type ReservationHandler struct {
	Cfg          config.Config
	Reservations *repository.ReservationRepo
}

func NewReservationHandler(cfg config.Config, r *repository.ReservationRepo) *ReservationHandler {
	return &ReservationHandler{Cfg: cfg, Reservations: r}
}

// ----- DTOs -----

type reserveReq struct {
	SpotID   string `json:"spot_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reservationPart struct {
	ID        uint64 `json:"id"`
	SpotID    string `json:"spot_id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// CreateReservation handles POST /v1/reserve.  It validates the payload
// field by field, persists the reservation with a bcrypt-hashed password
// and returns the created record.  Validation failures answer 400 with a
// per-field error map; the password hash never appears in the response.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SpotID = strings.TrimSpace(req.SpotID)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fieldErrs := map[string]string{}
	if req.SpotID == "" {
		fieldErrs["spot_id"] = "required"
	}
	if req.Email == "" {
		fieldErrs["email"] = "required"
	} else if !strings.Contains(req.Email, "@") {
		fieldErrs["email"] = "must be a valid email address"
	}
	if req.Password == "" {
		fieldErrs["password"] = "required"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rec, err := h.Reservations.Create(ctx, req.SpotID, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}

	return c.JSON(http.StatusCreated, reservationPart{
		ID:        rec.ID,
		SpotID:    rec.SpotID,
		Email:     rec.Email,
		CreatedAt: rec.CreatedAt.UTC().Format(time.RFC3339),
	})
}
