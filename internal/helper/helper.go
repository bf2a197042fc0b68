package helper

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// Hash8 is a short stable fingerprint, used to log emails without the address.
func Hash8(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// InviteCodeLen is the length of generated invite codes, 48 random bits.
const InviteCodeLen = 12

func InviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:InviteCodeLen]
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
