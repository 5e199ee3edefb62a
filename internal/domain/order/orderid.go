package order

import (
	"crypto/rand"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID generates a human-readable order ID like FS-LX2K9P01-7A3F.
// The timestamp segment keeps IDs roughly sortable; the random suffix
// makes same-millisecond collisions practically impossible.
func NewOrderID() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// Degenerate fallback, still unique enough with the timestamp
		return "FS-" + ts + "-0000"
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}

	return "FS-" + ts + "-" + string(buf)
}

// qrPayload is what the mobile app renders into the QR code
type qrPayload struct {
	ID string `json:"id"`
}

// QRContent returns the JSON the client should encode as a QR code
func QRContent(orderID string) string {
	data, _ := json.Marshal(qrPayload{ID: orderID})
	return string(data)
}

// ParseQR extracts the order ID from scanned QR content. Older app
// versions encoded the bare ID, so a non-JSON scan falls back to the
// raw string.
func ParseQR(raw string) string {
	raw = strings.TrimSpace(raw)

	var payload qrPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil && payload.ID != "" {
		return payload.ID
	}

	return raw
}
