// Package id generates prefixed entity identifiers.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixLibrary = "lib"
	PrefixSeries  = "ser"
	PrefixBook    = "book"
)

// Generate creates a prefixed unique ID using NanoID,
// e.g. "book-V1StGXR8_Z5jdHi6B-myT".
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// NewLibraryID returns a fresh library ID.
func NewLibraryID() (string, error) { return Generate(PrefixLibrary) }

// NewSeriesID returns a fresh series ID.
func NewSeriesID() (string, error) { return Generate(PrefixSeries) }

// NewBookID returns a fresh book ID.
func NewBookID() (string, error) { return Generate(PrefixBook) }
