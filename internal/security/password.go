package security

import "golang.org/x/crypto/bcrypt"

// HashKey hashes an automation key for storage in configuration
func HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckKey reports whether key matches the stored bcrypt hash. An empty hash
// disables key authentication entirely.
func CheckKey(key, hash string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
