// Package family names the protocol families a site can speak.
package family

import (
	"fmt"
	"sort"
	"strings"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/objmodel"
	"github.com/tturner/simbridge/internal/pdu"
)

const (
	DIS      = "dis"
	ObjModel = "objmodel"
)

// ErrUnknownFamily is returned by Lookup for names outside the table.
var ErrUnknownFamily = fmt.Errorf("%w: unknown protocol family", relayerr.ErrConfiguration)

// Family encodes and decodes PDUs in one wire representation.
type Family struct {
	Name      string
	Encode    func(*pdu.PDU) ([]byte, error)
	DecodeAll func([]byte) ([]*pdu.PDU, []error)
}

// Limits configures the codecs behind a Family.
type Limits struct {
	Registry *pdu.Registry
	MaxSize  int
}

// Lookup returns the family called name. Matching ignores case and
// surrounding whitespace.
func Lookup(name string, limits Limits) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case DIS:
		c := &pdu.Codec{Registry: limits.Registry, MaxSize: limits.MaxSize}
		return Family{Name: DIS, Encode: c.Encode, DecodeAll: c.DecodeAll}, nil
	case ObjModel:
		c := &objmodel.Codec{Registry: limits.Registry, MaxSize: limits.MaxSize}
		return Family{Name: ObjModel, Encode: c.Encode, DecodeAll: c.DecodeAll}, nil
	}
	return Family{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFamily, name, strings.Join(Names(), ", "))
}

// Names lists every family name.
func Names() []string {
	names := []string{DIS, ObjModel}
	sort.Strings(names)
	return names
}
