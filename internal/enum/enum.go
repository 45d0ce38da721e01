// Package enum implements enumerated types whose constants carry an ordinal,
// a name and a wire code, and whose sets of constants pack into a bit field.
//
// Types are defined once at process start and never mutated afterwards, so a
// *Type is safe for concurrent use without locking.
package enum

import (
	"fmt"
	"sort"
	"strings"

	relayerr "github.com/tturner/simbridge/internal/errors"
)

var (
	// ErrInvalidDefinition marks a type definition that cannot be built.
	ErrInvalidDefinition = fmt.Errorf("%w: invalid enumeration", relayerr.ErrConfiguration)
	// ErrUnknownOrdinal is returned for ordinals or codes with no constant.
	ErrUnknownOrdinal = fmt.Errorf("%w: unknown enumerated value", relayerr.ErrCodec)
	// ErrNotBitField is returned when a value-only type is used as a bit set.
	ErrNotBitField = fmt.Errorf("%w: type is not a bit field", relayerr.ErrConfiguration)
)

// Decl declares one constant. Code is the explicit wire value; when nil the
// ordinal is used.
type Decl struct {
	Name    string
	Ordinal int
	Code    *uint64
}

// D is shorthand for a Decl whose code equals its ordinal.
func D(name string, ordinal int) Decl {
	return Decl{Name: name, Ordinal: ordinal}
}

// DC is shorthand for a Decl with an explicit wire code.
func DC(name string, ordinal int, code uint64) Decl {
	return Decl{Name: name, Ordinal: ordinal, Code: &code}
}

// Constant is one named member of a Type.
type Constant struct {
	Name    string
	Ordinal int
	Code    uint64
}

func (c Constant) String() string { return c.Name }

// Type is an immutable enumeration table.
type Type struct {
	name      string
	width     int
	flags     bool
	constants []Constant
	byOrdinal map[int]int
	byCode    map[uint64]int
	byName    map[string]int
	mask      uint64
}

// Define builds a value enumeration stored in width bytes.
func Define(name string, width int, decls ...Decl) (*Type, error) {
	return define(name, width, false, decls)
}

// DefineFlags builds an enumeration whose sets pack into a width-byte bit
// field. Every ordinal must address a bit inside the field.
func DefineFlags(name string, width int, decls ...Decl) (*Type, error) {
	return define(name, width, true, decls)
}

// MustDefine is Define for package-level tables; it panics on error.
func MustDefine(name string, width int, decls ...Decl) *Type {
	t, err := Define(name, width, decls...)
	if err != nil {
		panic(err)
	}
	return t
}

// MustDefineFlags is DefineFlags for package-level tables; it panics on error.
func MustDefineFlags(name string, width int, decls ...Decl) *Type {
	t, err := DefineFlags(name, width, decls...)
	if err != nil {
		panic(err)
	}
	return t
}

func define(name string, width int, flags bool, decls []Decl) (*Type, error) {
	switch width {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("%w: %s: width %d must be 1, 2, 4 or 8 bytes", ErrInvalidDefinition, name, width)
	}
	if len(decls) == 0 {
		return nil, fmt.Errorf("%w: %s: no constants", ErrInvalidDefinition, name)
	}

	bits := width * 8
	t := &Type{
		name:      name,
		width:     width,
		flags:     flags,
		constants: make([]Constant, 0, len(decls)),
		byOrdinal: make(map[int]int, len(decls)),
		byCode:    make(map[uint64]int, len(decls)),
		byName:    make(map[string]int, len(decls)),
	}

	for _, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: %s: constant with ordinal %d has no name", ErrInvalidDefinition, name, d.Ordinal)
		}
		if d.Ordinal < 0 {
			return nil, fmt.Errorf("%w: %s.%s: negative ordinal %d", ErrInvalidDefinition, name, d.Name, d.Ordinal)
		}
		if flags && d.Ordinal >= bits {
			return nil, fmt.Errorf("%w: %s.%s: ordinal %d does not fit a %d-bit field", ErrInvalidDefinition, name, d.Name, d.Ordinal, bits)
		}
		code := uint64(d.Ordinal)
		if d.Code != nil {
			code = *d.Code
		}
		if bits < 64 && (uint64(d.Ordinal)>>uint(bits) != 0 || code>>uint(bits) != 0) {
			return nil, fmt.Errorf("%w: %s.%s: value does not fit %d byte(s)", ErrInvalidDefinition, name, d.Name, width)
		}
		key := strings.ToLower(d.Name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate name %q", ErrInvalidDefinition, name, d.Name)
		}
		if _, dup := t.byOrdinal[d.Ordinal]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate ordinal %d", ErrInvalidDefinition, name, d.Ordinal)
		}
		if _, dup := t.byCode[code]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate code %d", ErrInvalidDefinition, name, code)
		}

		idx := len(t.constants)
		t.constants = append(t.constants, Constant{Name: d.Name, Ordinal: d.Ordinal, Code: code})
		t.byName[key] = idx
		t.byOrdinal[d.Ordinal] = idx
		t.byCode[code] = idx
		if flags {
			t.mask |= 1 << uint(d.Ordinal)
		}
	}

	sort.Slice(t.constants, func(i, j int) bool { return t.constants[i].Ordinal < t.constants[j].Ordinal })
	for i, c := range t.constants {
		t.byName[strings.ToLower(c.Name)] = i
		t.byOrdinal[c.Ordinal] = i
		t.byCode[c.Code] = i
	}
	return t, nil
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Width returns the field width in bytes.
func (t *Type) Width() int { return t.width }

// IsFlags reports whether sets of this type pack into a bit field.
func (t *Type) IsFlags() bool { return t.flags }

// Constants returns the constants ordered by ordinal.
func (t *Type) Constants() []Constant {
	out := make([]Constant, len(t.constants))
	copy(out, t.constants)
	return out
}

// FromOrdinal returns the constant with the given ordinal.
func (t *Type) FromOrdinal(ordinal int) (Constant, error) {
	idx, ok := t.byOrdinal[ordinal]
	if !ok {
		return Constant{}, fmt.Errorf("%w: %s has no ordinal %d", ErrUnknownOrdinal, t.name, ordinal)
	}
	return t.constants[idx], nil
}

// ValueOf returns the constant whose wire code is code.
func (t *Type) ValueOf(code uint64) (Constant, error) {
	idx, ok := t.byCode[code]
	if !ok {
		return Constant{}, fmt.Errorf("%w: %s has no code %d", ErrUnknownOrdinal, t.name, code)
	}
	return t.constants[idx], nil
}

// ByName returns the constant with the given name, ignoring case and
// surrounding whitespace.
func (t *Type) ByName(name string) (Constant, bool) {
	idx, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Constant{}, false
	}
	return t.constants[idx], true
}

// OrdinalOf returns the ordinal of the named constant.
func (t *Type) OrdinalOf(name string) (int, error) {
	c, ok := t.ByName(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no constant %q", ErrUnknownOrdinal, t.name, name)
	}
	return c.Ordinal, nil
}

// NameOf returns the name for ordinal, or a numeric placeholder.
func (t *Type) NameOf(ordinal int) string {
	if idx, ok := t.byOrdinal[ordinal]; ok {
		return t.constants[idx].Name
	}
	return fmt.Sprintf("%s(%d)", t.name, ordinal)
}
