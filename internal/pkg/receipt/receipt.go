// Package receipt generates receipt identifiers sent to the payment gateway.
package receipt

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

// 62 characters: 0-9, a-z, A-Z
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// MaxLength is the longest receipt the gateway accepts.
const MaxLength = 40

const randomPartLength = 12

// New returns "ord_<time><random>", sortable by creation second and unique
// with overwhelming probability.
func New(now time.Time) (string, error) {
	random, err := GenerateSecureSlug(randomPartLength)
	if err != nil {
		return "", err
	}
	r := "ord_" + EncodeBase62(uint64(now.Unix())) + random
	if len(r) > MaxLength {
		r = r[:MaxLength]
	}
	return r, nil
}

// GenerateSecureSlug creates a cryptographically secure random Base62 slug.
func GenerateSecureSlug(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid slug length: %d", length)
	}

	// Rejection sampling to avoid modulo bias.
	// 248 is the largest multiple of 62 below 256.
	const maxRandomByte = 248

	slug := make([]byte, length)
	buf := make([]byte, length*2)
	written := 0

	for written < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read secure random bytes: %w", err)
		}

		for _, b := range buf {
			if b >= maxRandomByte {
				continue
			}
			slug[written] = alphabet[int(b)%len(alphabet)]
			written++
			if written == length {
				break
			}
		}
	}

	return string(slug), nil
}

// EncodeBase62 renders n in base 62 using the slug alphabet.
func EncodeBase62(n uint64) string {
	if n == 0 {
		return string(alphabet[0])
	}
	var b strings.Builder
	for n > 0 {
		b.WriteByte(alphabet[n%62])
		n /= 62
	}
	out := []byte(b.String())
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
