package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// StateSigner binds OAuth state values to the server secret so a callback
// can only complete a flow this server started
type StateSigner struct {
	secret []byte
}

// NewStateSigner creates a new HMAC-SHA256 state signer
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{secret: []byte(secret)}
}

// New returns a fresh signed state value
func (s *StateSigner) New() string {
	nonce := GenerateSessionID()
	return nonce + "." + s.sign(nonce)
}

// Valid reports whether state was produced by New
func (s *StateSigner) Valid(state string) bool {
	nonce, sig, ok := strings.Cut(state, ".")
	if !ok || nonce == "" || sig == "" {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(s.sign(nonce)))
}

func (s *StateSigner) sign(nonce string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil))
}
