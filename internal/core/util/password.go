package util

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt work factor used for new credential hashes.
var HashCost = bcrypt.DefaultCost

var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword(prehash("dummy-credential"), HashCost)
	return hash
})

// prehash folds a credential of any length into 44 bytes, below bcrypt's
// 72 byte input limit.
func prehash(credential string) []byte {
	sum := sha256.Sum256([]byte(credential))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func GenerateEncrypt(credential string) (string, error) {
	encrypted, err := bcrypt.GenerateFromPassword(prehash(credential), HashCost)

	if err != nil {
		return "", err
	}

	return string(encrypted), nil
}

func ComparePassword(credential, encrypted string) error {
	return bcrypt.CompareHashAndPassword([]byte(encrypted), prehash(credential))
}

// CompareDummy spends one bcrypt comparison so that unknown logins take
// as long to reject as wrong credentials.
func CompareDummy(credential string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), prehash(credential))
}
