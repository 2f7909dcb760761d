// Package passwords issues the one-time passwords mailed to new applicants
// and stores credentials as argon2id hashes.
package passwords

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/dmitrijs2005/candidates/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// Length of generated one-time passwords.
	Length = 8

	// Characters that are hard to confuse in print: no i, l, o, 0, 1.
	unambiguous = "abcdefghjkmnpqrstuvwxyz23456789"
	upper       = "ABCDEFGHJKLMNPQRSTUVWXYZ"

	scheme     = "argon2id"
	saltSize   = 16
	keySize    = 32
	iterations = 1
	memory     = 64 * 1024
	threads    = 4
)

// alphabet weights lowercase/digits 3:1 against uppercase.
var alphabet = strings.Repeat(unambiguous, 3) + upper

var errMalformedHash = errors.New("malformed password hash")

// Generate returns a random Length-character password.
func Generate() (string, error) {
	return common.RandomString(alphabet, Length)
}

// Hash derives an argon2id key from password with a fresh salt and encodes
// it as "argon2id$<salt>$<key>" (raw base64).
func Hash(password string) string {
	salt := common.GenerateRandByteArray(saltSize)
	key := derive(password, salt)
	enc := base64.RawStdEncoding
	return scheme + "$" + enc.EncodeToString(salt) + "$" + enc.EncodeToString(key)
}

// Verify reports whether password matches encoded. An empty or malformed
// hash never matches.
func Verify(encoded, password string) bool {
	salt, key, err := decode(encoded)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(key, derive(password, salt)) == 1
}

func derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, iterations, memory, threads, keySize)
}

func decode(encoded string) (salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != scheme {
		return nil, nil, errMalformedHash
	}
	enc := base64.RawStdEncoding
	if salt, err = enc.DecodeString(parts[1]); err != nil {
		return nil, nil, errMalformedHash
	}
	if key, err = enc.DecodeString(parts[2]); err != nil || len(key) != keySize {
		return nil, nil, errMalformedHash
	}
	return salt, key, nil
}
