package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const (
	hexDigits = "0123456789ABCDEF"
	decDigits = "0123456789"
)

func randomString(charset string, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(length)
	for _, b := range buf {
		sb.WriteByte(charset[int(b)%len(charset)])
	}
	return sb.String(), nil
}

// GenerateCode returns 2n uppercase hex characters, used for ticket QR
// payloads.
func GenerateCode(n int) (string, error) {
	return randomString(hexDigits, 2*n)
}

// GenerateOTP returns a numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	return randomString(decDigits, length)
}

// GenerateOrderID returns a short numeric transaction id: the current
// seconds-of-minute (2 digits) followed by 3 random digits. The id space
// is tiny on purpose. Some banks reuse the id verbatim as a virtual
// account suffix, so it must stay numeric and at most 6 characters.
// Callers are expected to check the store and regenerate on collision.
func GenerateOrderID() (string, error) {
	suffix, err := GenerateOTP(3)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%02d%s", time.Now().Second(), suffix), nil
}
