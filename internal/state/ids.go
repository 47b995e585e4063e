package state

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingCode generates a booking id like PBMC3K1T9XQ2: a PB prefix,
// the millisecond timestamp in base 36, and a 4-character random suffix.
func NewBookingCode(now time.Time) string {
	return "PB" + base36(now.UnixMilli()) + randomSuffix(4)
}

// NewQRToken generates the token encoded in the check-in QR code.
func NewQRToken(now time.Time) string {
	return "QR" + base36(now.UnixMilli()) + randomSuffix(8)
}

func base36(n int64) string {
	return strings.ToUpper(strconv.FormatInt(n, 36))
}

func randomSuffix(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return b.String()
}
