package credentials

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"

	"nihongo/internal/security"
)

const (
	keyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyPrefix   = "nhg_"

	// KeyLength is the number of random characters after the prefix
	KeyLength = 40
)

var ErrMalformedKey = errors.New("automation key has the wrong format")

// AutomationKey is a freshly generated deploy key and the bcrypt hash that goes into configuration
type AutomationKey struct {
	Key  string
	Hash string
}

// GenerateAutomationKey generates a random key for the deploy pipeline's
// X-Automation-Key header
func GenerateAutomationKey() (*AutomationKey, error) {
	key, err := randomString(KeyLength)
	if err != nil {
		return nil, err
	}
	key = keyPrefix + key

	hash, err := security.HashKey(key)
	if err != nil {
		return nil, err
	}
	return &AutomationKey{Key: key, Hash: hash}, nil
}

// ValidateFormat checks that key looks like one produced by GenerateAutomationKey
func ValidateFormat(key string) error {
	body, ok := strings.CutPrefix(key, keyPrefix)
	if !ok || len(body) != KeyLength {
		return ErrMalformedKey
	}
	for _, c := range body {
		if !strings.ContainsRune(keyAlphabet, c) {
			return ErrMalformedKey
		}
	}
	return nil
}

func randomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range out {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = keyAlphabet[num.Int64()]
	}
	return string(out), nil
}
