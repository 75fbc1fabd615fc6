package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// hashPassword derives the stored password digest: hex-encoded HMAC-SHA256 of
// the password keyed with the server secret. Seed accounts carry digests in
// this exact format, so the derivation is part of the data contract.
func hashPassword(secret, password string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// digestEqual compares two digests in constant time.
func digestEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
