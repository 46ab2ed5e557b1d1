package security

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// IsHashed reports whether a stored secret already looks like a bcrypt
// hash. The migration pass uses it to skip rows and never double-hash.
func IsHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") ||
		strings.HasPrefix(stored, "$2b$") ||
		strings.HasPrefix(stored, "$2y$")
}
