package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arvinth/campus-parking/internal/repository"
)

// PassHandler bundles dependencies for the monthly and yearly pass
// endpoints.  Both share one request shape and one validation pass.
type PassHandler struct {
	Passes *repository.PassRepo
}

func NewPassHandler(p *repository.PassRepo) *PassHandler {
	return &PassHandler{Passes: p}
}

type passReq struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	VehiclePlate string `json:"vehicle_plate"`
}

type passPart struct {
	ID           uint64 `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	VehiclePlate string `json:"vehicle_plate"`
	Plan         string `json:"plan"`
	CreatedAt    string `json:"created_at"`
}

// validate normalizes the request in place and returns per-field errors.
func (r *passReq) validate() map[string]string {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FullName = strings.TrimSpace(r.FullName)
	r.VehiclePlate = strings.ToUpper(strings.TrimSpace(r.VehiclePlate))

	fieldErrs := map[string]string{}
	if r.Email == "" {
		fieldErrs["email"] = "required"
	} else if !strings.Contains(r.Email, "@") {
		fieldErrs["email"] = "must be a valid email address"
	}
	if r.FullName == "" {
		fieldErrs["full_name"] = "required"
	}
	if r.VehiclePlate == "" {
		fieldErrs["vehicle_plate"] = "required"
	}
	return fieldErrs
}

// CreateMonthlyPass handles POST /v1/monthly-pass.
func (h *PassHandler) CreateMonthlyPass(c echo.Context) error {
	var req passReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fieldErrs := req.validate(); len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Passes.CreateMonthly(ctx, req.Email, req.FullName, req.VehiclePlate)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "pass already exists for this email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pass failed"})
	}
	return c.JSON(http.StatusCreated, passPart{
		ID: p.ID, Email: p.Email, FullName: p.FullName, VehiclePlate: p.VehiclePlate,
		Plan: "monthly", CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// CreateYearlyPass handles POST /v1/yearly-pass.
func (h *PassHandler) CreateYearlyPass(c echo.Context) error {
	var req passReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fieldErrs := req.validate(); len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Passes.CreateYearly(ctx, req.Email, req.FullName, req.VehiclePlate)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "pass already exists for this email"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create pass failed"})
	}
	return c.JSON(http.StatusCreated, passPart{
		ID: p.ID, Email: p.Email, FullName: p.FullName, VehiclePlate: p.VehiclePlate,
		Plan: "yearly", CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	})
}
