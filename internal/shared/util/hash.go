package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashUserKey returns a filesystem-safe identifier for a username.
// Usernames are compared case-sensitively, so no folding happens here.
func HashUserKey(username string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(username)))
	return hex.EncodeToString(sum[:])
}
