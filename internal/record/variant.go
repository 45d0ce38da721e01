package record

import (
	"fmt"

	"github.com/tturner/simbridge/internal/codec"
	"github.com/tturner/simbridge/internal/enum"
	relayerr "github.com/tturner/simbridge/internal/errors"
)

// ErrUnregisteredVariant is returned when a discriminant has no variant.
var ErrUnregisteredVariant = fmt.Errorf("%w: unregistered variant", relayerr.ErrCodec)

// Variant is a discriminated union of Fixed records. Every variant is
// registered up front and kept for the life of the Variant; selecting a
// discriminant only changes which one is live. The sentinel discriminant
// carries no body.
type Variant struct {
	disc     *enum.Type
	sentinel int
	active   int
	variants map[int]Fixed
}

// NewVariant returns a Variant keyed by disc with the given sentinel
// ordinal selected.
func NewVariant(disc *enum.Type, sentinel int) (*Variant, error) {
	if _, err := disc.FromOrdinal(sentinel); err != nil {
		return nil, fmt.Errorf("%w: sentinel: %w", relayerr.ErrConfiguration, err)
	}
	return &Variant{
		disc:     disc,
		sentinel: sentinel,
		active:   sentinel,
		variants: make(map[int]Fixed),
	}, nil
}

// MustVariant is NewVariant for record constructors; it panics on error.
func MustVariant(disc *enum.Type, sentinel int) *Variant {
	v, err := NewVariant(disc, sentinel)
	if err != nil {
		panic(err)
	}
	return v
}

// SetVariant registers or replaces the record for discriminant d.
func (v *Variant) SetVariant(d int, f Fixed) error {
	if _, err := v.disc.FromOrdinal(d); err != nil {
		return fmt.Errorf("%w: %w", relayerr.ErrConfiguration, err)
	}
	if d == v.sentinel {
		return fmt.Errorf("%w: %s.%s is the empty discriminant", relayerr.ErrConfiguration, v.disc.Name(), v.disc.NameOf(d))
	}
	if f == nil {
		return fmt.Errorf("%w: nil record for %s.%s", relayerr.ErrConfiguration, v.disc.Name(), v.disc.NameOf(d))
	}
	v.variants[d] = f
	return nil
}

// With registers f for d and returns v; it panics on error. It is meant for
// building variants inside record constructors.
func (v *Variant) With(d int, f Fixed) *Variant {
	if err := v.SetVariant(d, f); err != nil {
		panic(err)
	}
	return v
}

// Select makes d the live discriminant.
func (v *Variant) Select(d int) error {
	if d == v.sentinel {
		v.active = d
		return nil
	}
	if _, ok := v.variants[d]; !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnregisteredVariant, v.disc.Name(), v.disc.NameOf(d))
	}
	v.active = d
	return nil
}

// Clear selects the sentinel.
func (v *Variant) Clear() { v.active = v.sentinel }

// Active returns the live discriminant and its record. The record is nil
// for the sentinel.
func (v *Variant) Active() (int, Fixed) {
	if v.active == v.sentinel {
		return v.active, nil
	}
	return v.active, v.variants[v.active]
}

// Variant returns the registered record for d.
func (v *Variant) Variant(d int) (Fixed, bool) {
	f, ok := v.variants[d]
	return f, ok
}

// IsEmpty reports whether the sentinel is selected.
func (v *Variant) IsEmpty() bool { return v.active == v.sentinel }

// Discriminant returns the discriminant type.
func (v *Variant) Discriminant() *enum.Type { return v.disc }

// Encode writes the discriminant code followed by the live record.
func (v *Variant) Encode(w *codec.Writer) error {
	c, err := v.disc.FromOrdinal(v.active)
	if err != nil {
		return fmt.Errorf("%w: %w", codec.ErrInvalidField, err)
	}
	if err := w.PutUint(v.disc.Width(), c.Code); err != nil {
		return err
	}
	if v.active == v.sentinel {
		return nil
	}
	return Encode(w, v.variants[v.active])
}

// Decode reads the discriminant, selects it and decodes its record. On
// error the selection and the registered records are left as they were.
func (v *Variant) Decode(r *codec.Reader) error {
	code, err := r.Uint(v.disc.Width())
	if err != nil {
		return err
	}
	c, err := v.disc.ValueOf(code)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnregisteredVariant, err)
	}
	if c.Ordinal == v.sentinel {
		v.active = v.sentinel
		return nil
	}
	f, ok := v.variants[c.Ordinal]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnregisteredVariant, v.disc.Name(), c.Name)
	}
	saved, saveErr := Marshal(r.Order(), f)
	if err := Decode(r, f); err != nil {
		if saveErr == nil {
			_ = Unmarshal(r.Order(), saved, f)
		}
		return fmt.Errorf("%s: %w", c.Name, err)
	}
	v.active = c.Ordinal
	return nil
}
