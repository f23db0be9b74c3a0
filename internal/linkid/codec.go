// Package linkid encodes internal user sequence numbers into short opaque
// public link identifiers and back. The mapping is a reversible permutation
// over a fixed alphabet, not a hash: the original sequence number can always
// be recovered, but issued identifiers do not trivially expose ordering.
package linkid

import (
	"errors"
	"math"
	"strings"

	"github.com/sqids/sqids-go"
)

// Alphabet excludes visually ambiguous characters (0/O, I/l).
// MinLength pads short encodings so identifiers are hard to guess.
//
// Both are part of every identifier ever issued; changing either invalidates
// all existing public link IDs.
const (
	Alphabet  = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ23456789"
	MinLength = 8
)

var (
	// ErrInvalidSequence is returned when encoding a non-positive sequence number.
	ErrInvalidSequence = errors.New("linkid: sequence must be a positive integer")
	// ErrInvalidFormat is returned when decoding a malformed identifier.
	ErrInvalidFormat = errors.New("linkid: invalid identifier format")
)

// Codec converts between user sequence numbers and public link identifiers.
type Codec struct {
	sqids *sqids.Sqids
}

// NewCodec creates a codec over the fixed alphabet and minimum length.
func NewCodec() (*Codec, error) {
	s, err := sqids.New(sqids.Options{
		Alphabet:  Alphabet,
		MinLength: MinLength,
	})
	if err != nil {
		return nil, err
	}
	return &Codec{sqids: s}, nil
}

// Encode converts a positive sequence number into a public link identifier.
func (c *Codec) Encode(seq int64) (string, error) {
	if seq < 1 {
		return "", ErrInvalidSequence
	}
	return c.sqids.Encode([]uint64{uint64(seq)})
}

// Decode converts a public link identifier back into its sequence number.
func (c *Codec) Decode(code string) (int64, error) {
	if len(code) < MinLength {
		return 0, ErrInvalidFormat
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return 0, ErrInvalidFormat
		}
	}

	decoded := c.sqids.Decode(code)
	if len(decoded) == 0 || decoded[0] < 1 || decoded[0] > math.MaxInt64 {
		return 0, ErrInvalidFormat
	}

	return int64(decoded[0]), nil
}

// IsValid reports whether the identifier is well formed and decodes to a
// positive sequence number.
func (c *Codec) IsValid(code string) bool {
	_, err := c.Decode(code)
	return err == nil
}
