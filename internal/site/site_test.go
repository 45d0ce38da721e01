package site

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/family"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/provider"
	"github.com/tturner/simbridge/internal/provider/providertest"
)

func newSite(t *testing.T, cfg Config) (*Site, *providertest.Fake) {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "alpha"
	}
	fam, err := family.Lookup(family.DIS, family.Limits{})
	if err != nil {
		t.Fatalf("family.Lookup: %v", err)
	}
	p := providertest.New()
	s, err := New(cfg, p, fam, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, p
}

func TestNewRejectsIncompleteSites(t *testing.T) {
	fam, _ := family.Lookup(family.DIS, family.Limits{})
	tests := []struct {
		name string
		cfg  Config
		p    *providertest.Fake
		fam  family.Family
	}{
		{"no name", Config{}, providertest.New(), fam},
		{"no provider", Config{Name: "a"}, nil, fam},
		{"no family", Config{Name: "a"}, providertest.New(), family.Family{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.p == nil {
				_, err = New(tt.cfg, nil, tt.fam, nil)
			} else {
				_, err = New(tt.cfg, tt.p, tt.fam, nil)
			}
			if !errors.Is(err, ErrInvalidSite) || !errors.Is(err, relayerr.ErrConfiguration) {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestLifecycle(t *testing.T) {
	s, p := newSite(t, Config{})
	ctx := context.Background()

	if s.State() != StateDown || s.IsUp() {
		t.Fatalf("new site should start down")
	}
	if err := s.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := s.Up(ctx); err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if s.State() != StateUp || !p.IsOpen() {
		t.Fatalf("site should be up with an open provider")
	}
	s.Down()
	s.Down()
	if s.IsUp() || p.IsOpen() {
		t.Fatalf("site should be down with a closed provider")
	}
	if opens, closes := p.Counts(); opens != 1 || closes != 1 {
		t.Fatalf("opens %d closes %d, want 1 and 1", opens, closes)
	}
}

func TestUpFailureLeavesSiteDown(t *testing.T) {
	s, p := newSite(t, Config{})
	p.FailOpen(errors.New("address already in use"))
	err := s.Up(context.Background())
	if err == nil {
		t.Fatalf("expected Up to fail")
	}
	var ufe relayerr.UserFriendlyError
	if !errors.As(err, &ufe) {
		t.Fatalf("err %T is not user friendly", err)
	}
	if s.IsUp() {
		t.Fatalf("failed Up must leave the site down")
	}
}

func TestUpFailureNamesListenAddress(t *testing.T) {
	busy, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer busy.Close()
	addr := busy.LocalAddr().(*net.UDPAddr)

	udp, err := provider.NewUDP(provider.Options{
		ListenIP:     "127.0.0.1",
		Port:         addr.Port,
		Destinations: []string{"127.0.0.1:9"},
	})
	if err != nil {
		t.Fatalf("NewUDP: %v", err)
	}
	fam, _ := family.Lookup(family.DIS, family.Limits{})
	s, err := New(Config{Name: "alpha"}, udp, fam, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = s.Up(context.Background())
	if err == nil {
		s.Down()
		t.Fatalf("expected Up to fail on a bound port")
	}
	var ufe relayerr.UserFriendlyError
	if !errors.As(err, &ufe) {
		t.Fatalf("err %T is not user friendly", err)
	}
	if !strings.Contains(ufe.Message, addr.String()) {
		t.Fatalf("message %q does not name %s", ufe.Message, addr)
	}
	if strings.Contains(ufe.Message, string(provider.KindUDP)) {
		t.Fatalf("message %q names the provider kind as an address", ufe.Message)
	}
}

func TestTrafficThroughDownSite(t *testing.T) {
	s, _ := newSite(t, Config{})
	ctx := context.Background()
	if err := s.Send(ctx, []byte("x")); !errors.Is(err, ErrSiteDown) || !errors.Is(err, relayerr.ErrRouting) {
		t.Fatalf("Send err = %v", err)
	}
	if _, err := s.Receive(ctx); !errors.Is(err, ErrSiteDown) {
		t.Fatalf("Receive err = %v", err)
	}
}

func TestSendRetriesThenReportsLinkLost(t *testing.T) {
	s, p := newSite(t, Config{Retry: Retry{Attempts: 3, InitialDelay: time.Millisecond, Multiplier: 2}})
	ctx := context.Background()
	if err := s.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}

	t.Run("recovers", func(t *testing.T) {
		p.FailSends(2, errors.New("no route to host"))
		if err := s.Send(ctx, []byte("a")); err != nil {
			t.Fatalf("Send: %v", err)
		}
		if len(p.Sent()) != 1 {
			t.Fatalf("sent %d datagrams", len(p.Sent()))
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		var lost error
		s.OnLinkLost(func(_ *Site, err error) { lost = err })
		p.FailSends(-1, errors.New("no route to host"))
		err := s.Send(ctx, []byte("b"))
		if !errors.Is(err, ErrSendFailed) || !errors.Is(err, relayerr.ErrTransport) {
			t.Fatalf("Send err = %v", err)
		}
		if lost == nil {
			t.Fatalf("link-lost hook not called")
		}
		if !s.IsUp() {
			t.Fatalf("send failure must not change link state by itself")
		}
	})
}

func TestReceiveAfterDown(t *testing.T) {
	s, p := newSite(t, Config{})
	ctx := context.Background()
	if err := s.Up(ctx); err != nil {
		t.Fatalf("Up: %v", err)
	}
	p.Deliver([]byte("hello"))
	b, err := s.Receive(ctx)
	if err != nil || string(b) != "hello" {
		t.Fatalf("Receive = %q, %v", b, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.Receive(ctx)
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	s.Down()
	select {
	case err := <-done:
		if !errors.Is(err, ErrSiteDown) {
			t.Fatalf("Receive err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Receive did not return after Down")
	}
}

func TestFilter(t *testing.T) {
	header := func(typ pdu.Type, exercise uint8) pdu.Header {
		return pdu.Header{Type: typ, Exercise: exercise}
	}
	tests := []struct {
		name   string
		filter Filter
		h      pdu.Header
		want   bool
	}{
		{"empty accepts all", Filter{}, header(pdu.TypeFire, 1), true},
		{"allow list hit", Filter{AllowTypes: []pdu.Type{pdu.TypeFire}}, header(pdu.TypeFire, 1), true},
		{"allow list miss", Filter{AllowTypes: []pdu.Type{pdu.TypeFire}}, header(pdu.TypeEntityState, 1), false},
		{"deny wins", Filter{AllowTypes: []pdu.Type{pdu.TypeFire}, DenyTypes: []pdu.Type{pdu.TypeFire}}, header(pdu.TypeFire, 1), false},
		{"exercise hit", Filter{Exercises: []uint8{1, 2}}, header(pdu.TypeFire, 2), true},
		{"exercise miss", Filter{Exercises: []uint8{1, 2}}, header(pdu.TypeFire, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Check(tt.h)
			if (err == nil) != tt.want {
				t.Fatalf("Check = %v, want accept %v", err, tt.want)
			}
			if err != nil && !errors.Is(err, ErrFiltered) {
				t.Fatalf("err %v is not ErrFiltered", err)
			}
		})
	}
}

func TestNextBackoffDelay(t *testing.T) {
	cfg := Retry{InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond, Multiplier: 2}
	want := []time.Duration{10, 20, 40, 50, 50}
	for i, w := range want {
		if got := NextBackoffDelay(cfg, i+1, nil); got != w*time.Millisecond {
			t.Errorf("attempt %d: got %v, want %v", i+1, got, w*time.Millisecond)
		}
	}
	cfg.Jitter = true
	if got := NextBackoffDelay(cfg, 2, nil); got != 10*time.Millisecond {
		t.Errorf("jitter without rng: got %v", got)
	}
}
