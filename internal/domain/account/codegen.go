package account

import (
	"crypto/rand"
	"fmt"
)

const referralAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReferralCode generates a shareable code like FUEL-3F9K2A.
// Codes are stored uppercase and matched case-insensitively.
func NewReferralCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate referral code: %w", err)
	}

	for i, b := range buf {
		buf[i] = referralAlphabet[int(b)%len(referralAlphabet)]
	}

	return "FUEL-" + string(buf), nil
}
