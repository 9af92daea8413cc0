// Package symbol implements interned identifiers.
package symbol

import (
	"hash/fnv"

	"golang.org/x/text/unicode/norm"
)

// Symbol is an identifier paired with a hash of its name. Two symbols are
// equal exactly when their names are; the hash is a pure function of the
// name, so Symbol can be compared with == and used as a map key.
type Symbol struct {
	name string
	hash uint64
}

// Intern returns the symbol for name. Names are NFC-normalised first, so
// canonically equivalent spellings share one symbol.
func Intern(name string) Symbol {
	name = norm.NFC.String(name)
	return Symbol{name: name, hash: hashName(name)}
}

// Names interns every name in order.
func Names(names ...string) []Symbol {
	out := make([]Symbol, len(names))
	for i, n := range names {
		out[i] = Intern(n)
	}
	return out
}

func hashName(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name)) //nolint:errcheck
	return h.Sum64()
}

func (s Symbol) Name() string   { return s.name }
func (s Symbol) Hash() uint64   { return s.hash }
func (s Symbol) String() string { return s.name }

// IsZero reports whether s is the zero Symbol (never produced by Intern).
func (s Symbol) IsZero() bool { return s.name == "" && s.hash == 0 }

// Equal compares by name.
func (s Symbol) Equal(other Symbol) bool { return s.name == other.name }

// Less orders symbols by name.
func (s Symbol) Less(other Symbol) bool { return s.name < other.name }
