package provider

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
)

func TestLookupNormalizesNames(t *testing.T) {
	for _, name := range []string{"network.udp", "NETWORK.UDP", " network.udp ", "\tNetwork.Udp\n"} {
		k, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if k != KindUDP {
			t.Fatalf("Lookup(%q) = %s", name, k)
		}
	}
}

func TestLookupUnsupported(t *testing.T) {
	tests := []struct {
		name       string
		wantKind   Kind
		recognized bool
	}{
		{"network.tcp", KindTCP, true},
		{" FILE ", KindFile, true},
		{" BOGUS ", "bogus", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.wantKind), func(t *testing.T) {
			_, err := Lookup(tt.name)
			var upe *UnsupportedProviderError
			if !errors.As(err, &upe) {
				t.Fatalf("err = %v, want UnsupportedProviderError", err)
			}
			if upe.Name != tt.name || upe.Kind != tt.wantKind || upe.Recognized != tt.recognized {
				t.Fatalf("got %+v", upe)
			}
			if !strings.Contains(err.Error(), strconv.Quote(tt.name)) {
				t.Fatalf("error %q does not name the configured value %q", err, tt.name)
			}
			if !errors.Is(err, ErrUnsupportedProvider) || !errors.Is(err, relayerr.ErrConfiguration) {
				t.Fatalf("err %v is not a configuration error", err)
			}
			if !relayerr.IsFatal(err) {
				t.Fatalf("unsupported provider should be fatal")
			}
		})
	}
}

func TestResolveInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		kind string
		opts Options
	}{
		{"bad destination", "network.udp", Options{Destinations: []string{"no-port"}}},
		{"broadcast without port", "network.udp", Options{Broadcast: true}},
		{"bad listen ip", "network.udp", Options{ListenIP: "localhost:9"}},
		{"unicast group", "network.multicast", Options{MulticastGroup: "10.0.0.1", Port: 3000}},
		{"group without port", "network.multicast", Options{MulticastGroup: "239.1.2.3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.kind, tt.opts)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("err = %v, want ErrInvalidOptions", err)
			}
		})
	}
}

func TestResolveKinds(t *testing.T) {
	p, err := Resolve(" Network.UDP", Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Kind() != KindUDP || p.IsOpen() {
		t.Fatalf("kind %s open %v", p.Kind(), p.IsOpen())
	}
	m, err := Resolve("network.multicast", Options{MulticastGroup: "239.10.0.1", Port: 3000})
	if err != nil {
		t.Fatalf("Resolve multicast: %v", err)
	}
	if m.Kind() != KindMulticast {
		t.Fatalf("kind = %s", m.Kind())
	}
}

func TestImplementedList(t *testing.T) {
	got := Implemented()
	if len(got) != 2 || got[0] != string(KindMulticast) || got[1] != string(KindUDP) {
		t.Fatalf("Implemented() = %v", got)
	}
	if len(Recognized()) != 4 {
		t.Fatalf("Recognized() = %v", Recognized())
	}
	if IsImplemented(KindTCP) {
		t.Fatalf("tcp should not be implemented")
	}
}

func TestNotOpen(t *testing.T) {
	p, err := NewUDP(Options{})
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	ctx := context.Background()
	if err := p.Send(ctx, []byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Send err = %v", err)
	}
	if _, err := p.Receive(ctx); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("Receive err = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on closed provider: %v", err)
	}
	if !errors.Is(ErrNotOpen, relayerr.ErrTransport) {
		t.Fatalf("ErrNotOpen should be a transport error")
	}
}

func TestOptionDefaults(t *testing.T) {
	var o Options
	o.applyDefaults()
	if o.ReceiveTimeout != 500*time.Millisecond || o.MaxDatagram != 65535 || o.TTL != 32 {
		t.Fatalf("defaults = %+v", o)
	}
}
