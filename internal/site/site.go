// Package site binds a named relay participant to its transport provider
// and protocol family.
//
// A Site starts Down. Up opens the provider, Down closes it; nothing else
// changes link state. Both are idempotent. Traffic through a Down site is a
// routing error, never a transport call.
package site

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/family"
	"github.com/tturner/simbridge/internal/logging"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/provider"
)

var (
	ErrInvalidSite = fmt.Errorf("%w: invalid site", relayerr.ErrConfiguration)
	ErrSiteDown    = fmt.Errorf("%w: site is down", relayerr.ErrRouting)
	ErrFiltered    = fmt.Errorf("%w: rejected by site filter", relayerr.ErrRouting)
	ErrSendFailed  = fmt.Errorf("%w: send retries exhausted", relayerr.ErrTransport)
)

// State is a site's link state.
type State int

const (
	StateDown State = iota
	StateUp
)

func (s State) String() string {
	if s == StateUp {
		return "up"
	}
	return "down"
}

// Config holds the per-site settings that are not transport options.
type Config struct {
	Name   string
	Path   string
	Filter Filter
	Retry  Retry
}

// Site is one relay participant.
type Site struct {
	cfg      Config
	provider provider.Provider
	family   family.Family
	log      *logging.Logger

	mu sync.Mutex // serializes Up and Down
	up atomic.Bool

	hookMu     sync.RWMutex
	onLinkLost func(*Site, error)

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New builds a Down site around a resolved provider.
func New(cfg Config, p provider.Provider, fam family.Family, log *logging.Logger) (*Site, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidSite)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: site %s has no provider", ErrInvalidSite, cfg.Name)
	}
	if fam.Encode == nil || fam.DecodeAll == nil {
		return nil, fmt.Errorf("%w: site %s has no protocol family", ErrInvalidSite, cfg.Name)
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = DefaultRetry
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Site{
		cfg:      cfg,
		provider: p,
		family:   fam,
		log:      log,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (s *Site) Name() string                { return s.cfg.Name }
func (s *Site) Path() string                { return s.cfg.Path }
func (s *Site) Filter() Filter              { return s.cfg.Filter }
func (s *Site) Family() family.Family       { return s.family }
func (s *Site) Provider() provider.Provider { return s.provider }

// IsUp reports the link state.
func (s *Site) IsUp() bool { return s.up.Load() }

func (s *Site) State() State {
	if s.IsUp() {
		return StateUp
	}
	return StateDown
}

// Up opens the provider and marks the site live. On failure the site
// stays Down.
func (s *Site) Up(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.up.Load() {
		s.log.Debug("site %s already up", s.cfg.Name)
		return nil
	}
	if err := s.provider.Open(ctx); err != nil {
		return relayerr.WrapTransportError(err, s.cfg.Name, s.provider.Addr())
	}
	s.up.Store(true)
	s.log.LogLink(s.cfg.Name, string(s.provider.Kind()), true, nil)
	return nil
}

// Down marks the site offline and closes the provider. A close error is
// logged, not returned.
func (s *Site) Down() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.up.Load() {
		s.log.Debug("site %s already down", s.cfg.Name)
		return
	}
	s.up.Store(false)
	if err := s.provider.Close(); err != nil {
		s.log.Error("site %s: close provider: %v", s.cfg.Name, err)
	}
	s.log.LogLink(s.cfg.Name, string(s.provider.Kind()), false, nil)
}

// OnLinkLost registers fn to be called when sends keep failing. The hook
// decides whether to call Down.
func (s *Site) OnLinkLost(fn func(*Site, error)) {
	s.hookMu.Lock()
	s.onLinkLost = fn
	s.hookMu.Unlock()
}

func (s *Site) reportLinkLost(err error) {
	s.hookMu.RLock()
	fn := s.onLinkLost
	s.hookMu.RUnlock()
	if fn != nil {
		fn(s, err)
	}
}

// Check applies the site filter to p.
func (s *Site) Check(p *pdu.PDU) error {
	return s.cfg.Filter.Check(p.Header)
}

// Accepts reports whether p passes the site filter.
func (s *Site) Accepts(p *pdu.PDU) bool {
	return s.Check(p) == nil
}

// Send writes b through the provider, retrying with backoff. When retries
// are exhausted the link-lost hook fires and ErrSendFailed is returned.
func (s *Site) Send(ctx context.Context, b []byte) error {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Retry.Attempts; attempt++ {
		if !s.IsUp() {
			return fmt.Errorf("%w: %s", ErrSiteDown, s.cfg.Name)
		}
		lastErr = s.provider.Send(ctx, b)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == s.cfg.Retry.Attempts {
			break
		}
		s.log.Debug("site %s: send attempt %d failed: %v", s.cfg.Name, attempt, lastErr)
		if err := s.sleep(ctx, attempt); err != nil {
			return err
		}
	}
	err := fmt.Errorf("%w: site %s after %d attempts: %w", ErrSendFailed, s.cfg.Name, s.cfg.Retry.Attempts, lastErr)
	s.reportLinkLost(err)
	return err
}

func (s *Site) sleep(ctx context.Context, attempt int) error {
	s.rngMu.Lock()
	d := NextBackoffDelay(s.cfg.Retry, attempt, s.rng)
	s.rngMu.Unlock()
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive returns the next datagram from the provider. A site taken Down
// while blocked returns ErrSiteDown.
func (s *Site) Receive(ctx context.Context) ([]byte, error) {
	if !s.IsUp() {
		return nil, fmt.Errorf("%w: %s", ErrSiteDown, s.cfg.Name)
	}
	b, err := s.provider.Receive(ctx)
	if err != nil && !s.IsUp() {
		return nil, fmt.Errorf("%w: %s", ErrSiteDown, s.cfg.Name)
	}
	return b, err
}

// Encode renders p in the site's protocol family.
func (s *Site) Encode(p *pdu.PDU) ([]byte, error) { return s.family.Encode(p) }

// DecodeAll parses a datagram in the site's protocol family.
func (s *Site) DecodeAll(b []byte) ([]*pdu.PDU, []error) { return s.family.DecodeAll(b) }
