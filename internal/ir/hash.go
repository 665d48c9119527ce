package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainStatement = "sqlir/statement/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementFingerprint computes a content-addressed ID for a compiled
// statement. The same dialect, text and parameters always produce the same
// fingerprint, so it can key a prepared-statement cache.
func StatementFingerprint(dialect, text string, params []Value) (string, error) {
	args := make(Array, len(params))
	copy(args, params)

	obj := Object{
		"ir_version": String(IRVersion),
		"dialect":    String(dialect),
		"text":       String(text),
		"params":     args,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("StatementFingerprint: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainStatement, canonical), nil
}
