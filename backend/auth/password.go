package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = bcrypt.DefaultCost

// HashPassword hashes a password for at-rest storage.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NeedsRehash reports whether the stored hash uses an outdated cost and
// should be transparently upgraded after a successful login.
func NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return false
	}
	return cost < hashCost
}

// GenerateVerificationCode returns a zero-padded 6-digit one-time code.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashVerificationCode hashes a one-time code with the same discipline as
// passwords, so the plaintext code never reaches the database.
func HashVerificationCode(code string) (string, error) {
	return HashPassword(code)
}

// CheckVerificationCode compares a submitted code against the stored value.
// Current rows store a bcrypt hash; rows written before hashing was
// introduced store the code in clear and are compared in constant time.
func CheckVerificationCode(stored, submitted string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}
