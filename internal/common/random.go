package common

import (
	"crypto/rand"
	"math/big"
)

// GenerateRandByteArray returns size bytes read from crypto/rand.
// It panics if the system random source fails, which is not recoverable.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// RandomString draws length runes uniformly from alphabet using crypto/rand.
// Repeating characters in alphabet weights them accordingly.
func RandomString(alphabet string, length int) (string, error) {
	chars := []rune(alphabet)
	if len(chars) == 0 || length <= 0 {
		return "", nil
	}

	max := big.NewInt(int64(len(chars)))
	out := make([]rune, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

// WipeByteArray overwrites b with zeros. A nil slice is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
