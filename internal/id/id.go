// Package id generates prefixed unique identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a new ID with the given prefix, e.g. "user-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	nano, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generating id: %w", err)
	}
	return prefix + "-" + nano, nil
}

// MustGenerate is like Generate but panics on error. Nanoid generation only
// fails when the system randomness source is broken.
func MustGenerate(prefix string) string {
	s, err := Generate(prefix)
	if err != nil {
		panic(err)
	}
	return s
}
