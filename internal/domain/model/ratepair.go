package model

import (
	"net/url"
	"strings"
)

// PairKey identifies a directed exchange rate, e.g. "USD_EUR". Each currency
// code is path-escaped and any "_" inside it is written as "%5F", so the only
// unescaped "_" in a key is the separator.
type PairKey string

// NewPairKey builds the key for converting from -> to.
func NewPairKey(from, to string) PairKey {
	return PairKey(escapeCode(from) + "_" + escapeCode(to))
}

func escapeCode(code string) string {
	return strings.ReplaceAll(url.PathEscape(code), "_", "%5F")
}

// Reciprocal returns the key for the opposite direction.
func (k PairKey) Reciprocal() PairKey {
	from, to := k.Codes()
	return PairKey(to + "_" + from)
}

// Codes splits the key into its escaped from and to parts.
func (k PairKey) Codes() (from, to string) {
	from, to, _ = strings.Cut(string(k), "_")
	return from, to
}

// String implements fmt.Stringer.
func (k PairKey) String() string {
	return string(k)
}
