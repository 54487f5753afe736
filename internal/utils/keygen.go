package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// GenerateCertificateID generates a new certificate item identifier.
// Format: CRT-xxxxxx-xxxxxx (two groups of six random digits)
// Example: CRT-102416-028334
func GenerateCertificateID() (string, error) {
	first, err := randomDigits(6)
	if err != nil {
		return "", err
	}
	second, err := randomDigits(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CRT-%s-%s", first, second), nil
}

// GenerateEtag generates an opaque 40-character hex change token. A new etag
// is attached on every mutation of a certificate item.
func GenerateEtag() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func randomDigits(n int) (string, error) {
	max := big.NewInt(10)
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
