package location

import (
	"encoding/json"
	"errors"
	"strings"
)

var ErrInvalidPayload = errors.New("invalid location QR payload")

// QRPayload is the JSON document encoded in a location's QR code.
type QRPayload struct {
	LocationID string `json:"locationId"`
	Code       string `json:"code,omitempty"`
}

// ParseQRPayload decodes scanned QR text. A payload without a location id is rejected.
func ParseQRPayload(raw string) (QRPayload, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return QRPayload{}, ErrInvalidPayload
	}

	var p QRPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return QRPayload{}, ErrInvalidPayload
	}
	p.LocationID = strings.TrimSpace(p.LocationID)
	if p.LocationID == "" {
		return QRPayload{}, ErrInvalidPayload
	}
	return p, nil
}

// Encode renders the payload as the text placed in the QR code.
func (p QRPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
