// Package qr renders confirmation links into scannable PNG images on the
// local filesystem.  Images live under <mediaRoot>/qr and are addressed by
// the relative path returned from Encode, which the frontend resolves
// through the /media static route.
package qr

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// maxPayloadBytes is the binary capacity of a version-40 QR code at the
// medium error-correction level used below.
const maxPayloadBytes = 2331

// ErrPayloadTooLarge is returned when the payload exceeds QR capacity.
// Handlers should translate this into an HTTP 500 rather than swallowing
// it into a generic success message.
var ErrPayloadTooLarge = errors.New("qr payload exceeds barcode capacity")

// ErrInvalidFileName is returned for file names that would resolve outside
// the qr directory.  File names may derive from client input, so path
// separators and dot-dot names are rejected rather than joined.
var ErrInvalidFileName = errors.New("qr file name must not contain path separators")

// Encoder writes QR images under a media root directory.
type Encoder struct {
	mediaRoot string
}

// NewEncoder returns an Encoder rooted at the given media directory.
func NewEncoder(mediaRoot string) *Encoder { return &Encoder{mediaRoot: mediaRoot} }

// Encode renders payload into <mediaRoot>/qr/<fileName> and returns the
// relative path "media/qr/<fileName>" for the frontend.  The directory is
// created if absent.  Payload content is not validated beyond capacity;
// any UTF-8 string up to maxPayloadBytes is accepted.  An existing file
// with the same name is silently overwritten, so callers needing isolation
// must supply unique names (e.g. including the spot id).
func (e *Encoder) Encode(payload, fileName string) (string, error) {
	if fileName == "" || fileName == "." || fileName == ".." ||
		strings.ContainsAny(fileName, `/\`) || fileName != filepath.Base(fileName) {
		return "", ErrInvalidFileName
	}
	if len(payload) > maxPayloadBytes {
		return "", ErrPayloadTooLarge
	}
	dir := filepath.Join(e.mediaRoot, "qr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}
	full := filepath.Join(dir, fileName)
	if err := qrcode.WriteFile(payload, qrcode.Medium, 256, full); err != nil {
		return "", fmt.Errorf("write qr image: %w", err)
	}
	return path.Join("media", "qr", fileName), nil
}
