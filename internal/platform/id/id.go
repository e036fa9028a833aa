package id

import (
	"crypto/rand"
	"encoding/hex"
)

// Generator creates opaque identifiers for recorded actions.
type Generator interface {
	New() string
}

type RandomHex struct{}

func (RandomHex) New() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "act-" + hex.EncodeToString(buf)
}
