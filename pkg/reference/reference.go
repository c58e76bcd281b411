package reference

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

// Transaction references are short, human-legible and unambiguous: an
// uppercase alphabet without 0/O/1/I so support staff can read them over
// the phone. The reference doubles as the idempotency key for the gateway.
const (
	alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	size     = 12
)

// Generator mints unique transaction references.
type Generator struct {
	prefix string
	newID  func() string
}

// NewGenerator builds a reference generator with the given prefix ("DM").
func NewGenerator(prefix string) (*Generator, error) {
	if prefix == "" {
		return nil, fmt.Errorf("reference prefix required")
	}
	gen, err := nanoid.CustomASCII(alphabet, size)
	if err != nil {
		return nil, fmt.Errorf("building nanoid generator: %w", err)
	}
	return &Generator{prefix: prefix, newID: gen}, nil
}

// Next returns a fresh reference, e.g. "DM-7K2PQX9MZT4A".
func (g *Generator) Next() string {
	return fmt.Sprintf("%s-%s", g.prefix, g.newID())
}
