package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is compared against when no user matches, so a login for an
// unknown email costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("tinyu-no-such-user")
	if err != nil {
		return ""
	}
	return hash
})
