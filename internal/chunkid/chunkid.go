// Package chunkid derives content-addressed chunk identifiers.
//
// An id is a pure function of the source tag, document key, ordinal, and the
// first PrefixChars characters of the chunk text. Re-ingesting unchanged
// content reproduces the same ids, so vector upserts overwrite instead of
// duplicating.
package chunkid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	// PrefixChars is the number of leading chunk characters hashed into the id.
	PrefixChars = 100

	// HashHexLen is the width of the hex digest kept in the id.
	HashHexLen = 16

	separator = "_"
)

// New returns the id for the chunk at ordinal within documentKey.
func New(sourceTag, documentKey string, ordinal int, text string) string {
	h := sha256.New()
	h.Write([]byte(documentKey))
	h.Write([]byte{':'})
	h.Write([]byte(strconv.Itoa(ordinal)))
	h.Write([]byte{':'})
	h.Write([]byte(prefix(text, PrefixChars)))
	sum := hex.EncodeToString(h.Sum(nil))[:HashHexLen]
	return strings.ToLower(sourceTag) + separator + sum
}

func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
