package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Pairing-code alphabet: 32 symbols, no 0/1/I/O to reduce transcription
// ambiguity.
const pairingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	pairingCodeLen = 12
	pairingGroup   = 4
)

// GeneratePairingCode returns a new plaintext pairing code in the form
// XXXX-XXXX-XXXX. The caller is responsible for showing it exactly once;
// only its hash is ever stored.
func GeneratePairingCode() (string, error) {
	max := big.NewInt(int64(len(pairingAlphabet)))

	var sb strings.Builder
	for i := 0; i < pairingCodeLen; i++ {
		if i > 0 && i%pairingGroup == 0 {
			sb.WriteByte('-')
		}

		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate pairing code: %w", err)
		}
		sb.WriteByte(pairingAlphabet[n.Int64()])
	}

	return sb.String(), nil
}

// CanonicalizePairingCode normalizes user input so codes can be typed
// with or without separators and in any case: strip non-alphanumerics,
// uppercase, require exactly twelve symbols, re-insert a dash every
// four. Canonicalization is idempotent.
func CanonicalizePairingCode(code string) (string, error) {
	var stripped []byte
	for _, ch := range strings.ToUpper(code) {
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			stripped = append(stripped, byte(ch))
		}
	}

	if len(stripped) != pairingCodeLen {
		return "", fmt.Errorf("pairing code must contain %d characters, got %d", pairingCodeLen, len(stripped))
	}

	var sb strings.Builder
	for i, ch := range stripped {
		if i > 0 && i%pairingGroup == 0 {
			sb.WriteByte('-')
		}
		sb.WriteByte(ch)
	}

	return sb.String(), nil
}
