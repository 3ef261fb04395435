package sessions

import (
	"crypto/rand"
	"strings"
)

// share codes are uppercase alphanumeric so they survive being read
// aloud or typed from a phone screen
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// returns a new random share code
func NewCode() (string, error) {
	bytes := make([]byte, CodeLength)

	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	var b strings.Builder

	for _, v := range bytes {
		b.WriteByte(codeCharset[int(v)%len(codeCharset)])
	}

	return b.String(), nil
}

// reports whether code is a well-formed share code. Lowercase input is
// not valid here; callers normalize with NormalizeCode first.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}

	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeCharset, rune(code[i])) {
			return false
		}
	}

	return true
}

// uppercases and trims a user-typed code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
