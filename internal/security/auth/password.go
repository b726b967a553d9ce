package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost 12 keeps hashing deliberately slow to resist offline brute force.
const bcryptCost = 12

// HashPassword produces an adaptive salted digest of the plaintext.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether the plaintext matches the digest. A
// malformed digest verifies as false rather than erroring.
func VerifyPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
