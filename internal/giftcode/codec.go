// Package giftcode generates and formats gift redemption codes.
//
// Codes are bearer tokens, so they are drawn from crypto/rand only.
package giftcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	DefaultLength = 12
	groupSize     = 4
	alphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var alphabetSize = big.NewInt(int64(len(alphabet)))

// Generate returns a random uppercase alphanumeric code of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// New returns a code of DefaultLength.
func New() (string, error) {
	return Generate(DefaultLength)
}

// Format groups a code into dash separated blocks of four, e.g. ABCD-1234-EFGH.
func Format(code string) string {
	if len(code) <= groupSize {
		return code
	}

	var b strings.Builder
	for i := 0; i < len(code); i += groupSize {
		if i > 0 {
			b.WriteByte('-')
		}
		end := i + groupSize
		if end > len(code) {
			end = len(code)
		}
		b.WriteString(code[i:end])
	}
	return b.String()
}

// Normalize strips everything except ASCII letters and digits and uppercases the rest.
func Normalize(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether code has the shape of an issued code.
func Valid(code string) bool {
	if len(code) != DefaultLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(alphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
