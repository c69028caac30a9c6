// Package testutil provides deterministic helpers for harness tests:
// fixed run tokens so recorded runs and golden files are byte-identical
// across executions.
package testutil

import "github.com/google/uuid"

// TokenGenerator produces run tokens for the verdict store.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, making tokens
// sortable by creation time - helpful when browsing run history.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewUUIDv7Generator creates a UUIDv7 run token generator.
func NewUUIDv7Generator() *UUIDv7Generator {
	return &UUIDv7Generator{}
}

// Generate returns a new UUIDv7 string.
func (g *UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedTokenGenerator returns the same run token every time.
//
// This enables deterministic test execution: the same scenario recorded
// with the same FixedTokenGenerator produces byte-identical store rows
// and golden snapshots.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a fixed run token generator.
// If token is empty, Generate returns "test-run-default".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "test-run-default"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed run token.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
