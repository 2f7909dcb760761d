// Package confirmation computes the one-click confirmation code embedded in
// the link that is e-mailed after an application is first saved.
package confirmation

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"fmt"
)

// CodeLength is the number of base-32 characters kept from the digest.
const CodeLength = 12

// Code digests "{id}{email}{secret}" with SHA-1 and returns the first
// CodeLength characters of its base-32 encoding. The code is deterministic
// and cannot be turned back into its inputs.
func Code(id int64, email string, secret []byte) string {
	plaintext := fmt.Sprintf("%d%s%s", id, email, secret)
	sum := sha1.Sum([]byte(plaintext))
	return base32.StdEncoding.EncodeToString(sum[:])[:CodeLength]
}

// Verify recomputes the code and compares it with candidate in constant time.
func Verify(id int64, email string, secret []byte, candidate string) bool {
	expected := Code(id, email, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(candidate)) == 1
}

// Path is the confirmation URL path for an application.
func Path(id int64, code string) string {
	return fmt.Sprintf("/confirm/%d/%s/", id, code)
}
