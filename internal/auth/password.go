package auth

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TemporaryPasswordLength is the length of generated first-login passwords.
const TemporaryPasswordLength = 12

// HashPassword hashes a plaintext password. A cost outside bcrypt's range
// falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// GenerateTemporaryPassword returns a random lowercase hex password handed
// to a new agent in the account notification.
func GenerateTemporaryPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:TemporaryPasswordLength]
}
