package transaction

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// NewReceiptNumber generates a receipt like FS2026080042. The month
// segment makes receipts easy to eyeball in reports; the 4-digit suffix
// can collide within a month, so callers retry on a unique violation.
func NewReceiptNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf("FS%s%04d", now.Format("200601"), n.Int64())
}
