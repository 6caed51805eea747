package credentials

import (
	"errors"
	"testing"

	"nihongo/internal/security"
)

func TestGenerateAutomationKey(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		generated, err := GenerateAutomationKey()
		if err != nil {
			t.Fatalf("GenerateAutomationKey() error = %v", err)
		}
		if err := ValidateFormat(generated.Key); err != nil {
			t.Errorf("generated key %q fails validation: %v", generated.Key, err)
		}
		if !security.CheckKey(generated.Key, generated.Hash) {
			t.Error("hash does not match the generated key")
		}
		if seen[generated.Key] {
			t.Errorf("duplicate key generated: %s", generated.Key)
		}
		seen[generated.Key] = true
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"valid", "nhg_" + "abcdefghijABCDEFGHIJ0123456789abcdefghij", true},
		{"missing prefix", "abcdefghijABCDEFGHIJ0123456789abcdefghij", false},
		{"too short", "nhg_abc", false},
		{"bad character", "nhg_" + "abcdefghijABCDEFGHIJ0123456789abcdefgh-!", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.key)
			if tt.ok && err != nil {
				t.Errorf("ValidateFormat() error = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformedKey) {
				t.Errorf("ValidateFormat() error = %v, want ErrMalformedKey", err)
			}
		})
	}
}
