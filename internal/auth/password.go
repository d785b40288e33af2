package auth

import "golang.org/x/crypto/bcrypt"

// MinBcryptCost is the lowest work factor accepted for stored passwords.
const MinBcryptCost = 10

// HashPassword hashes a plaintext password with a fresh salt at the configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < MinBcryptCost {
		cost = MinBcryptCost
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
