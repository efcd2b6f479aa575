package models

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const base36Upper = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewOrderID returns a human-readable order id: ORD-<last 6 ms digits>-<6 random>.
func NewOrderID(now time.Time) string {
	return "ORD-" + lastDigits(now, 6) + "-" + randomBase36(6)
}

// NewTransactionID returns a payment transaction id: TXN-<last 8 ms digits>-<8 random>.
func NewTransactionID(now time.Time) string {
	return "TXN-" + lastDigits(now, 8) + "-" + randomBase36(8)
}

func lastDigits(now time.Time, n int) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) <= n {
		return ms
	}
	return ms[len(ms)-n:]
}

func randomBase36(n int) string {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36Upper)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is unusable.
			panic(err)
		}
		out[i] = base36Upper[idx.Int64()]
	}
	return string(out)
}
