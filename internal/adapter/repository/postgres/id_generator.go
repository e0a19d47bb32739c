package postgres

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// IBANGenerator generates account identifiers as a country prefix followed
// by a random UUID.
type IBANGenerator struct {
	prefix string
}

// NewIBANGenerator creates a new IBANGenerator.
func NewIBANGenerator(prefix string) *IBANGenerator {
	return &IBANGenerator{prefix: strings.ToUpper(strings.TrimSpace(prefix))}
}

// Generate generates a new IBAN.
func (g *IBANGenerator) Generate() string {
	return g.prefix + uuid.NewString()
}
