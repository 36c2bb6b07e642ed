package utils

import (
	"crypto/rand"
	"math/big"
)

const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTestCode generates a random upper-case test code of length n.
// Ambiguous characters (0/O, 1/I) are left out since participants type it.
func GenerateTestCode(n int) string {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return ""
		}
		b[i] = codeCharset[num.Int64()]
	}
	return string(b)
}
