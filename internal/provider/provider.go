// Package provider resolves transport providers by name.
//
// A Provider moves raw datagrams for exactly one site. Names are resolved
// once, when the site is built; an unknown name or one whose transport is
// not implemented is a configuration error at that point.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
)

// Kind is a normalized provider name.
type Kind string

const (
	KindUDP       Kind = "network.udp"
	KindMulticast Kind = "network.multicast"
	KindFile      Kind = "file"
	KindTCP       Kind = "network.tcp"
)

// kinds maps every recognized name to whether it is implemented.
var kinds = map[Kind]bool{
	KindUDP:       true,
	KindMulticast: true,
	KindFile:      false,
	KindTCP:       false,
}

var (
	ErrUnsupportedProvider = fmt.Errorf("%w: unsupported provider", relayerr.ErrConfiguration)
	ErrInvalidOptions      = fmt.Errorf("%w: invalid provider options", relayerr.ErrConfiguration)
	ErrOpen                = fmt.Errorf("%w: open failed", relayerr.ErrTransport)
	ErrNotOpen             = fmt.Errorf("%w: provider not open", relayerr.ErrTransport)
	ErrSend                = fmt.Errorf("%w: send failed", relayerr.ErrTransport)
	ErrReceive             = fmt.Errorf("%w: receive failed", relayerr.ErrTransport)
)

// UnsupportedProviderError names a provider that cannot be resolved.
// Recognized distinguishes a known but unimplemented transport from an
// unknown name.
type UnsupportedProviderError struct {
	Name       string // as configured
	Kind       Kind
	Recognized bool
}

func (e *UnsupportedProviderError) Error() string {
	if e.Recognized {
		return fmt.Sprintf("unsupported provider %q: recognized but not implemented (implemented: %s)",
			e.Name, strings.Join(Implemented(), ", "))
	}
	return fmt.Sprintf("unsupported provider %q: unknown name (implemented: %s)",
		e.Name, strings.Join(Implemented(), ", "))
}

func (e *UnsupportedProviderError) Unwrap() error { return ErrUnsupportedProvider }

// Provider is a datagram transport owned by one site.
type Provider interface {
	Kind() Kind
	// Addr is the configured local endpoint, used in error messages.
	Addr() string
	Open(ctx context.Context) error
	Close() error
	Send(ctx context.Context, b []byte) error
	// Receive blocks until a datagram arrives, ctx is done or the
	// provider is closed.
	Receive(ctx context.Context) ([]byte, error)
	IsOpen() bool
}

// Options configures the network providers.
type Options struct {
	ListenIP       string
	Port           int
	Destinations   []string
	Broadcast      bool
	MulticastGroup string
	Interface      string // name, IP, "auto" or empty for the system default
	TTL            int
	ReceiveTimeout time.Duration
	MaxDatagram    int
}

const (
	defaultReceiveTimeout = 500 * time.Millisecond
	defaultMaxDatagram    = 65535
	defaultTTL            = 32
)

func (o *Options) applyDefaults() {
	if o.ReceiveTimeout <= 0 {
		o.ReceiveTimeout = defaultReceiveTimeout
	}
	if o.MaxDatagram <= 0 {
		o.MaxDatagram = defaultMaxDatagram
	}
	if o.TTL <= 0 {
		o.TTL = defaultTTL
	}
}

// Normalize lowercases and trims a provider name.
func Normalize(name string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(name)))
}

// Lookup maps name to an implemented Kind.
func Lookup(name string) (Kind, error) {
	k := Normalize(name)
	implemented, recognized := kinds[k]
	if !implemented {
		return "", &UnsupportedProviderError{Name: name, Kind: k, Recognized: recognized}
	}
	return k, nil
}

// Resolve looks name up and builds an unopened provider.
func Resolve(name string, opts Options) (Provider, error) {
	k, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	opts.applyDefaults()
	switch k {
	case KindUDP:
		return NewUDP(opts)
	case KindMulticast:
		return NewMulticast(opts)
	}
	return nil, &UnsupportedProviderError{Name: name, Kind: k, Recognized: true}
}

// Implemented lists the implemented provider names.
func Implemented() []string {
	var out []string
	for k, ok := range kinds {
		if ok {
			out = append(out, string(k))
		}
	}
	sort.Strings(out)
	return out
}

// Recognized lists every recognized provider name; see IsImplemented.
func Recognized() []Kind {
	out := make([]Kind, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsImplemented reports whether k has a transport.
func IsImplemented(k Kind) bool { return kinds[k] }
