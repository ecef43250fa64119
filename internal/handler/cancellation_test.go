package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/arvinth/campus-parking/internal/model"
	"github.com/arvinth/campus-parking/internal/qr"
	"github.com/arvinth/campus-parking/internal/repository"
	"github.com/arvinth/campus-parking/internal/service"
	"github.com/arvinth/campus-parking/internal/utils"
)

// memStore is a minimal in-memory ReservationStore for endpoint tests.
// It holds at most a handful of rows and mirrors the conditional
// transition semantics of the MySQL repository.
type memStore struct {
	rows   map[uint64]*model.Reservation
	nextID uint64
}

func newMemStore() *memStore { return &memStore{rows: map[uint64]*model.Reservation{}} }

func (s *memStore) add(t *testing.T, spotID, email, password string) uint64 {
	t.Helper()
	hash, err := utils.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	s.nextID++
	s.rows[s.nextID] = &model.Reservation{ID: s.nextID, SpotID: spotID, Email: strings.ToLower(email), PasswordHash: hash}
	return s.nextID
}

func (s *memStore) FindForCancellation(_ context.Context, spotID, email string) (model.Reservation, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var best *model.Reservation
	for _, r := range s.rows {
		if r.SpotID == spotID && r.Email == email && (best == nil || r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return *best, nil
}

func (s *memStore) ArmConfirmation(_ context.Context, id uint64, token string) error {
	r, ok := s.rows[id]
	if !ok || r.IsScanned {
		return repository.ErrReservationNotFound
	}
	r.ConfirmToken = &token
	return nil
}

func (s *memStore) ConfirmByToken(_ context.Context, token string) (bool, error) {
	for _, r := range s.rows {
		if r.ConfirmToken != nil && *r.ConfirmToken == token && !r.IsScanned {
			r.IsScanned = true
			r.ConfirmToken = nil
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ConfirmLatestForSpot(_ context.Context, spotID string) (bool, error) {
	var best *model.Reservation
	for _, r := range s.rows {
		if r.SpotID == spotID && !r.IsScanned && (best == nil || r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return false, nil
	}
	best.IsScanned = true
	best.ConfirmToken = nil
	return true, nil
}

func (s *memStore) DeleteConfirmed(_ context.Context, spotID string) (model.Reservation, bool, error) {
	var best *model.Reservation
	for _, r := range s.rows {
		if r.SpotID == spotID && r.IsScanned && (best == nil || r.ID > best.ID) {
			best = r
		}
	}
	if best == nil {
		return model.Reservation{}, false, nil
	}
	delete(s.rows, best.ID)
	return *best, true, nil
}

func (s *memStore) Delete(_ context.Context, id uint64) error {
	if _, ok := s.rows[id]; !ok {
		return repository.ErrReservationNotFound
	}
	delete(s.rows, id)
	return nil
}

type memPasses struct{ kinds map[string]string }

func (p *memPasses) ActivePassKind(_ context.Context, email string) (string, error) {
	return p.kinds[strings.ToLower(strings.TrimSpace(email))], nil
}

type env struct {
	e       *echo.Echo
	store   *memStore
	passes  *memPasses
	handler *CancellationHandler
	media   string
}

// newEnv wires a CancellationHandler over in-memory stores and a real QR
// encoder writing into a temp directory.
func newEnv(t *testing.T) *env {
	t.Helper()
	store := newMemStore()
	passes := &memPasses{kinds: map[string]string{}}
	media := t.TempDir()
	svc := service.NewCancellation(store, passes, qr.NewEncoder(media), nil, "http://scanner.local")
	return &env{
		e:       echo.New(),
		store:   store,
		passes:  passes,
		handler: NewCancellationHandler(svc),
		media:   media,
	}
}

func (v *env) postCancel(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/cancel-reservation", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := v.e.NewContext(req, rec)
	if err := v.handler.Cancel(c); err != nil {
		t.Fatalf("Cancel handler: %v", err)
	}
	return rec
}

func (v *env) getScan(t *testing.T, spotID, token string) *httptest.ResponseRecorder {
	t.Helper()
	target := "/v1/mark-as-scanned/" + spotID
	if token != "" {
		target += "?token=" + token
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := v.e.NewContext(req, rec)
	c.SetPath("/v1/mark-as-scanned/:spot_id")
	c.SetParamNames("spot_id")
	c.SetParamValues(spotID)
	if err := v.handler.MarkScanned(c); err != nil {
		t.Fatalf("MarkScanned handler: %v", err)
	}
	return rec
}

func (v *env) getStatus(t *testing.T, spotID string) (int, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/check-scan-status/"+spotID, nil)
	rec := httptest.NewRecorder()
	c := v.e.NewContext(req, rec)
	c.SetPath("/v1/check-scan-status/:spot_id")
	c.SetParamNames("spot_id")
	c.SetParamValues(spotID)
	if err := v.handler.CheckScanStatus(c); err != nil {
		t.Fatalf("CheckScanStatus handler: %v", err)
	}
	var body struct {
		IsScanned bool `json:"is_scanned"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode status body: %v", err)
	}
	return rec.Code, body.IsScanned
}

func TestCancelMissingFields(t *testing.T) {
	v := newEnv(t)
	rec := v.postCancel(t, `{"spot_id":"A1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	for _, field := range []string{"email", "password"} {
		if body.Errors[field] == "" {
			t.Errorf("missing field error for %q: %v", field, body.Errors)
		}
	}
}

func TestCancelUnknownReservation(t *testing.T) {
	v := newEnv(t)
	rec := v.postCancel(t, `{"spot_id":"A1","email":"x@y.com","password":"p"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCancelWrongPassword(t *testing.T) {
	v := newEnv(t)
	id := v.store.add(t, "A1", "x@y.com", "p")

	rec := v.postCancel(t, `{"spot_id":"A1","email":"x@y.com","password":"nope"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if v.store.rows[id] == nil {
		t.Error("row deleted despite bad password")
	}
}

func TestCancelPassHolderNoQR(t *testing.T) {
	v := newEnv(t)
	id := v.store.add(t, "A1", "x@y.com", "p")
	v.passes.kinds["x@y.com"] = "yearly"

	rec := v.postCancel(t, `{"spot_id":"A1","email":"x@y.com","password":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Success string  `json:"success"`
		QR      *string `json:"qr"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.QR != nil {
		t.Errorf("pass holder response has qr = %q", *body.QR)
	}
	if v.store.rows[id] != nil {
		t.Error("row not deleted on the pass-holder path")
	}

	// Scan and poll for the same spot afterwards find nothing.
	if got := v.getScan(t, "A1", ""); !strings.Contains(got.Body.String(), "Nothing to confirm") {
		t.Error("scan after pass-holder cancellation did not show the generic page")
	}
	if _, scanned := v.getStatus(t, "A1"); scanned {
		t.Error("status reported scanned after pass-holder cancellation")
	}
}

func TestCancelScanPollRoundTrip(t *testing.T) {
	v := newEnv(t)
	id := v.store.add(t, "A1", "x@y.com", "p")

	rec := v.postCancel(t, `{"spot_id":"A1","email":"x@y.com","password":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", rec.Code)
	}
	var body struct {
		Success string  `json:"success"`
		QR      *string `json:"qr"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.QR == nil || *body.QR == "" {
		t.Fatal("no qr path in cancel response")
	}
	// The image actually exists under the media root.
	onDisk := filepath.Join(v.media, strings.TrimPrefix(*body.QR, "media/"))
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("qr image missing on disk: %v", err)
	}
	// The row survives until the poll observes the scan.
	if v.store.rows[id] == nil {
		t.Fatal("row deleted before scan confirmation")
	}

	// Poll before scanning: not scanned yet.
	if _, scanned := v.getStatus(t, "A1"); scanned {
		t.Fatal("status reported scanned before the link was opened")
	}

	token := *v.store.rows[id].ConfirmToken
	scanRec := v.getScan(t, "A1", token)
	if scanRec.Code != http.StatusOK || !strings.Contains(scanRec.Body.String(), "Cancellation confirmed") {
		t.Fatalf("scan response = %d %q", scanRec.Code, scanRec.Body.String())
	}
	// Second scan is a quiet no-op.
	if again := v.getScan(t, "A1", token); !strings.Contains(again.Body.String(), "Nothing to confirm") {
		t.Error("second scan did not show the generic page")
	}

	// Poll observes the scan exactly once, deleting the row.
	if code, scanned := v.getStatus(t, "A1"); code != http.StatusOK || !scanned {
		t.Fatalf("first poll = (%d,%v), want (200,true)", code, scanned)
	}
	if v.store.rows[id] != nil {
		t.Fatal("row survived the poll")
	}
	if code, scanned := v.getStatus(t, "A1"); code != http.StatusOK || scanned {
		t.Fatalf("second poll = (%d,%v), want (200,false)", code, scanned)
	}
}

func TestCancelHostileSpotIDWritesInsideMediaRoot(t *testing.T) {
	v := newEnv(t)
	v.store.add(t, "/../../../evil", "x@y.com", "p")

	rec := v.postCancel(t, `{"spot_id":"/../../../evil","email":"x@y.com","password":"p"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		QR *string `json:"qr"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.QR == nil || strings.Contains(*body.QR, "..") {
		t.Fatalf("qr path = %v, want a path without dot-dot", body.QR)
	}
	// The image landed under the media root, not above it.
	onDisk := filepath.Join(v.media, strings.TrimPrefix(*body.QR, "media/"))
	if _, err := os.Stat(onDisk); err != nil {
		t.Fatalf("qr image missing under media root: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(v.media), "evil.png")); !os.IsNotExist(err) {
		t.Error("a file escaped the media root")
	}
}

func TestCancelAfterScanReportsConflict(t *testing.T) {
	v := newEnv(t)
	id := v.store.add(t, "A1", "x@y.com", "p")
	if rec := v.postCancel(t, `{"spot_id":"A1","email":"x@y.com","password":"p"}`); rec.Code != http.StatusOK {
		t.Fatalf("first cancel status = %d, want 200", rec.Code)
	}
	token := *v.store.rows[id].ConfirmToken
	v.getScan(t, "A1", token)

	rec := v.postCancel(t, `{"spot_id":"A1","email":"x@y.com","password":"p"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-cancel after scan status = %d, want 409", rec.Code)
	}
	if v.store.rows[id] == nil {
		t.Error("row disappeared without a poll")
	}
}

func TestScanUnknownSpotNeverErrors(t *testing.T) {
	v := newEnv(t)
	rec := v.getScan(t, "nowhere", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Nothing to confirm") {
		t.Error("unknown spot did not show the generic page")
	}
}
