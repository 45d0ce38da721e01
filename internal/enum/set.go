package enum

import (
	"fmt"
	"math/bits"
	"strings"
)

// Set is a set of constant ordinals in [0, 64). The zero value is empty.
type Set struct {
	bits uint64
}

// NewSet returns a set holding the given ordinals. Ordinals outside [0, 64)
// are ignored.
func NewSet(ordinals ...int) Set {
	var s Set
	for _, o := range ordinals {
		s = s.Add(o)
	}
	return s
}

// Add returns s with ordinal added.
func (s Set) Add(ordinal int) Set {
	if ordinal < 0 || ordinal >= 64 {
		return s
	}
	s.bits |= 1 << uint(ordinal)
	return s
}

// Remove returns s without ordinal.
func (s Set) Remove(ordinal int) Set {
	if ordinal < 0 || ordinal >= 64 {
		return s
	}
	s.bits &^= 1 << uint(ordinal)
	return s
}

// Has reports whether ordinal is a member.
func (s Set) Has(ordinal int) bool {
	if ordinal < 0 || ordinal >= 64 {
		return false
	}
	return s.bits&(1<<uint(ordinal)) != 0
}

// Len returns the number of members.
func (s Set) Len() int { return bits.OnesCount64(s.bits) }

// Ordinals returns the members in ascending order.
func (s Set) Ordinals() []int {
	out := make([]int, 0, s.Len())
	for b := s.bits; b != 0; b &= b - 1 {
		out = append(out, bits.TrailingZeros64(b))
	}
	return out
}

// FromBitField decodes every set bit of field into a Set. A bit with no
// declared constant is an error.
func (t *Type) FromBitField(field uint64) (Set, error) {
	if !t.flags {
		return Set{}, fmt.Errorf("%w: %s", ErrNotBitField, t.name)
	}
	if extra := field &^ t.mask; extra != 0 {
		return Set{}, fmt.Errorf("%w: %s has no constant for bit %d", ErrUnknownOrdinal, t.name, bits.TrailingZeros64(extra))
	}
	return Set{bits: field}, nil
}

// ToBitField packs s into a bit field. It is the exact inverse of
// FromBitField.
func (t *Type) ToBitField(s Set) (uint64, error) {
	if !t.flags {
		return 0, fmt.Errorf("%w: %s", ErrNotBitField, t.name)
	}
	var field uint64
	for _, o := range s.Ordinals() {
		if _, ok := t.byOrdinal[o]; !ok {
			return 0, fmt.Errorf("%w: %s has no ordinal %d", ErrUnknownOrdinal, t.name, o)
		}
		field |= 1 << uint(o)
	}
	return field, nil
}

// Names renders s as "a|b|c" for logs.
func (t *Type) Names(s Set) string {
	ords := s.Ordinals()
	if len(ords) == 0 {
		return "none"
	}
	names := make([]string, len(ords))
	for i, o := range ords {
		names[i] = t.NameOf(o)
	}
	return strings.Join(names, "|")
}
