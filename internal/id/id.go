// Package id implements the scheduler's 128-bit Identifier: a value type
// with a canonical textual form, clone, and a null-sentinel cleared state.
package id

import (
	"github.com/google/uuid"
)

// Identifier is an opaque 128-bit value. The zero Identifier is the
// cleared/null sentinel: Identifier{} behaves exactly like the result of
// calling Clear on a previously generated one.
type Identifier struct {
	value uuid.UUID
	set   bool
}

// New generates a fresh, non-null Identifier.
func New() Identifier {
	return Identifier{value: uuid.New(), set: true}
}

// Parse decodes the canonical 8-4-4-4-12 lowercase hex form into an
// Identifier.
func Parse(s string) (Identifier, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{value: v, set: true}, nil
}

// Clone returns a copy of id; Identifier is a value type so this is
// equivalent to a plain assignment, but is exposed to mirror the scheduler's
// clone vocabulary used by Stage, Task, and Vertex.
func (i Identifier) Clone() Identifier {
	return i
}

// Clear returns the cleared/null sentinel form of this identifier.
func (i Identifier) Clear() Identifier {
	return Identifier{}
}

// IsSet reports whether the identifier carries generated bits, as opposed
// to being the cleared sentinel.
func (i Identifier) IsSet() bool {
	return i.set
}

// String renders the canonical 8-4-4-4-12 lowercase hex form. The cleared
// sentinel renders as the nil UUID form.
func (i Identifier) String() string {
	return i.value.String()
}

// Equal reports identifier equality: two identifiers compare equal iff both
// are cleared or both carry the same bits.
func (i Identifier) Equal(other Identifier) bool {
	if !i.set && !other.set {
		return true
	}
	if i.set != other.set {
		return false
	}
	return i.value == other.value
}
