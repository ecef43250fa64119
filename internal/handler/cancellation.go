// This file implements the three endpoints of the cancellation protocol:
// the credential-checked initiation, the scan confirmation opened from the
// QR link, and the status poll that performs the final deletion.  Status
// code mapping follows the sentinel errors of the service and repository
// layers; unexpected failures collapse to a generic 500 so raw error text
// never reaches a client.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arvinth/campus-parking/internal/qr"
	"github.com/arvinth/campus-parking/internal/repository"
	"github.com/arvinth/campus-parking/internal/service"
)

// CancellationHandler exposes the cancellation state machine over HTTP.
type CancellationHandler struct {
	Svc *service.Cancellation
}

func NewCancellationHandler(svc *service.Cancellation) *CancellationHandler {
	if svc == nil {
		panic("nil service passed to NewCancellationHandler")
	}
	return &CancellationHandler{Svc: svc}
}

type cancelReq struct {
	SpotID   string `json:"spot_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type cancelResp struct {
	Success string  `json:"success"`
	QR      *string `json:"qr"`
}

// scannedPage is shown to the device that opened a live confirmation link.
const scannedPage = `<!doctype html>
<h2>Cancellation confirmed</h2>
<p>Your parking reservation is being cancelled. You can close this page.</p>`

// genericPage is shown for links that are stale, already used or unknown.
// The scanning device never sees a hard error.
const genericPage = `<!doctype html>
<h2>Nothing to confirm</h2>
<p>This link was already used or the reservation no longer exists.</p>`

// Cancel handles POST /v1/cancel-reservation.  All three fields are
// required.  Responses: 200 with {success, qr}, 400 on missing fields,
// 404 when no reservation matches, 401 on a bad password.
func (h *CancellationHandler) Cancel(c echo.Context) error {
	var req cancelReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.SpotID = strings.TrimSpace(req.SpotID)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrs := map[string]string{}
	if req.SpotID == "" {
		fieldErrs["spot_id"] = "required"
	}
	if req.Email == "" {
		fieldErrs["email"] = "required"
	}
	if req.Password == "" {
		fieldErrs["password"] = "required"
	}
	if len(fieldErrs) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": fieldErrs})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Svc.Initiate(ctx, req.SpotID, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no reservation found for this email at this spot"})
		case errors.Is(err, service.ErrPasswordMismatch):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect password, cancellation denied"})
		case errors.Is(err, service.ErrAlreadyConfirmed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation already confirmed, waiting for the status poll"})
		case errors.Is(err, qr.ErrPayloadTooLarge):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate QR code"})
		default:
			c.Logger().Errorf("cancel reservation: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
		}
	}

	resp := cancelResp{Success: res.Message}
	if res.QRPath != "" {
		resp.QR = &res.QRPath
	}
	return c.JSON(http.StatusOK, resp)
}

// MarkScanned handles GET /v1/mark-as-scanned/:spot_id, the target of the
// QR link.  The optional token query parameter resolves the exact
// reservation the link was issued for.  The endpoint always answers 200
// with a human-readable page: a success page when a reservation
// transitioned to scanned, and a generic page otherwise, including on
// storage failures, so the scanning device is never confronted with an
// error status.
func (h *CancellationHandler) MarkScanned(c echo.Context) error {
	spotID := c.Param("spot_id")
	token := c.QueryParam("token")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	confirmed, err := h.Svc.Confirm(ctx, spotID, token)
	if err != nil {
		c.Logger().Errorf("mark as scanned %q: %v", spotID, err)
		return c.HTML(http.StatusOK, genericPage)
	}
	if !confirmed {
		return c.HTML(http.StatusOK, genericPage)
	}
	return c.HTML(http.StatusOK, scannedPage)
}

// CheckScanStatus handles GET /v1/check-scan-status/:spot_id.  It always
// answers 200 with {is_scanned}.  When a scanned reservation exists it is
// deleted in the same atomic store operation, so true is reported exactly
// once per reservation; later polls for the same spot report false.
func (h *CancellationHandler) CheckScanStatus(c echo.Context) error {
	spotID := c.Param("spot_id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	scanned, err := h.Svc.Poll(ctx, spotID)
	if err != nil {
		c.Logger().Errorf("check scan status %q: %v", spotID, err)
		scanned = false
	}
	return c.JSON(http.StatusOK, echo.Map{"is_scanned": scanned})
}
