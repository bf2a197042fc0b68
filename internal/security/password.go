package security

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and compares password credentials. Callers treat the hash as
// opaque.
type Hasher interface {
	Hash(pw string) (string, error)
	Compare(hash, pw string) bool
}

type BcryptHasher struct {
	Cost int
}

// NewBcrypt returns the default hasher (cost 12).
func NewBcrypt() BcryptHasher { return BcryptHasher{Cost: 12} }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	return string(h), err
}

func (BcryptHasher) Compare(hash, pw string) bool {
	return CheckPassword(hash, pw)
}

// emptyHash stands in for accounts without a password so the compare costs
// the same as a real one.
var emptyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("no password set"), 12)
	if err != nil {
		panic(err)
	}
	return h
})

// CheckPassword reports whether pw matches hash. An empty hash never matches.
func CheckPassword(hash, pw string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(emptyHash(), []byte(pw))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
