package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	numericCharset      = "0123456789"
	alphanumericCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numericCharset)
}

func generateRandom(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			b[i] = charset[0]
			continue
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}

// GenerateRideNumber returns a human-readable ride reference like RH-4F7K2M9Q.
func GenerateRideNumber() string {
	return "RH-" + generateRandom(8, alphanumericCharset)
}
