package site

import (
	"fmt"

	"github.com/tturner/simbridge/internal/pdu"
)

// Filter limits which PDUs a site accepts for delivery. Empty lists accept
// everything; DenyTypes wins over AllowTypes.
type Filter struct {
	AllowTypes []pdu.Type
	DenyTypes  []pdu.Type
	Exercises  []uint8
}

// IsZero reports whether f accepts every PDU.
func (f Filter) IsZero() bool {
	return len(f.AllowTypes) == 0 && len(f.DenyTypes) == 0 && len(f.Exercises) == 0
}

// Check returns nil if h passes f, or ErrFiltered naming the reason.
func (f Filter) Check(h pdu.Header) error {
	for _, t := range f.DenyTypes {
		if t == h.Type {
			return fmt.Errorf("%w: type %s denied", ErrFiltered, h.Type)
		}
	}
	if len(f.AllowTypes) > 0 && !containsType(f.AllowTypes, h.Type) {
		return fmt.Errorf("%w: type %s not allowed", ErrFiltered, h.Type)
	}
	if len(f.Exercises) > 0 && !containsExercise(f.Exercises, h.Exercise) {
		return fmt.Errorf("%w: exercise %d not allowed", ErrFiltered, h.Exercise)
	}
	return nil
}

func containsType(list []pdu.Type, t pdu.Type) bool {
	for _, v := range list {
		if v == t {
			return true
		}
	}
	return false
}

func containsExercise(list []uint8, e uint8) bool {
	for _, v := range list {
		if v == e {
			return true
		}
	}
	return false
}
