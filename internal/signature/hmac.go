// Package signature verifies the HMAC-SHA256 signatures lead webhooks carry
// in the x-signature header.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Header is the request header carrying the lowercase hex signature.
const Header = "x-signature"

// Sign returns the lowercase hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the HMAC-SHA256 of the raw body under
// secret. It must be called on the unparsed body bytes. An empty secret or
// signature never verifies, and the comparison runs in constant time for
// equal-length inputs.
func Verify(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	expected := Sign(secret, body)
	provided := strings.TrimSpace(signature)
	if len(provided) != len(expected) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
