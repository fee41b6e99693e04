// Package digest computes stable content hashes for snapshots and payloads.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrHashMismatch is returned when content does not match the expected digest.
var ErrHashMismatch = errors.New("hash mismatch")

// Bytes returns the hex SHA-256 of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// Of hashes the JSON encoding of v. Struct fields encode in declaration order,
// so equal values always hash the same.
func Of(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode value for hashing: %w", err)
	}

	return Bytes(data), nil
}

// Verify checks data against a previously computed digest.
func Verify(data []byte, want string) error {
	if got := Bytes(data); got != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, want, got)
	}

	return nil
}
