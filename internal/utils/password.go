package utils

import "golang.org/x/crypto/bcrypt"

// SaltRounds is the bcrypt work factor used for every stored password.
const SaltRounds = 10

// HashPassword returns a salted bcrypt digest of plain.  Passwords longer
// than 72 bytes are rejected with bcrypt.ErrPasswordTooLong.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), SaltRounds)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
