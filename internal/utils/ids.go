package utils

import (
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const shortCodeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID creates a random UUID for records and in-memory sessions
func NewID() string {
	return uuid.New().String()
}

// NewShortCode creates a short, URL-friendly identifier for shareable records
func NewShortCode() (string, error) {
	return gonanoid.Generate(shortCodeAlphabet, 10)
}
