package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const maxInboundLength = 64

// Generator creates opaque correlation ids.
type Generator interface {
	NewID() (string, error)
}

// HexGenerator returns size random bytes hex encoded.
type HexGenerator struct {
	size int
}

func NewHexGenerator(size int) *HexGenerator {
	if size <= 0 {
		size = 16
	}
	return &HexGenerator{size: size}
}

func (g *HexGenerator) NewID() (string, error) {
	buf := make([]byte, g.size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// Valid reports whether an id received from a client can be echoed back and logged.
func Valid(raw string) bool {
	if raw == "" || len(raw) > maxInboundLength {
		return false
	}
	for _, c := range raw {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
