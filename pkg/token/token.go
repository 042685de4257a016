// Package token signs and verifies warmup requests.
//
// A token is the lowercase hex SHA-256 of the target URL immediately
// followed by the shared secret.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

func Calc(targetURL, secret string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(targetURL+secret)))
}

// Verify reports whether supplied is the token for targetURL.
// The comparison runs in constant time; an empty token never verifies.
func Verify(supplied, targetURL, secret string) bool {
	if supplied == "" {
		return false
	}
	expected := Calc(targetURL, secret)
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}
