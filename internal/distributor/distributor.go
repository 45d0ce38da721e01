// Package distributor relays PDUs between sites.
//
// Every site gets two goroutines: a pump that receives, decodes and routes
// its inbound traffic, and a sender that drains its outbound queue. A pump
// blocks only when a destination queue is full. The site table is an
// immutable snapshot replaced atomically by SetSites.
package distributor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tturner/simbridge/internal/analyzer"
	relayerr "github.com/tturner/simbridge/internal/errors"
	"github.com/tturner/simbridge/internal/logging"
	"github.com/tturner/simbridge/internal/metrics"
	"github.com/tturner/simbridge/internal/pdu"
	"github.com/tturner/simbridge/internal/site"
)

// DefaultQueueDepth bounds each site's outbound queue.
const DefaultQueueDepth = 256

// idle wait between receive attempts on a down or failing site
const idleInterval = 50 * time.Millisecond

var (
	ErrDuplicateSite  = fmt.Errorf("%w: duplicate site name", relayerr.ErrConfiguration)
	ErrAlreadyRunning = errors.New("distributor already running")
)

// Recorder receives a copy of every forwarded datagram.
type Recorder interface {
	Record(src, dst string, payload []byte, ts time.Time) error
}

// Options configures a Distributor. Nil fields get working defaults.
type Options struct {
	Logger     *logging.Logger
	Metrics    *metrics.Sink
	Analyzer   *analyzer.Analyzer
	Recorder   Recorder
	QueueDepth int
}

type outbound struct {
	src      string
	typ      pdu.Type
	payload  []byte
	received time.Time
}

// route is a site plus its outbound queue. done is closed when the route
// leaves a running site table; its queue is not drained after that.
type route struct {
	site   *site.Site
	queue  chan outbound
	done   chan struct{}
	cancel context.CancelFunc
}

type snapshot struct {
	routes []*route
	byName map[string]*route
}

// Distributor owns the sites of one relay.
type Distributor struct {
	opts Options
	log  *logging.Logger
	sink *metrics.Sink

	snap atomic.Pointer[snapshot]

	mu      sync.Mutex // guards lifecycle
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New returns a stopped Distributor with no sites.
func New(opts Options) *Distributor {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewSink("")
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = DefaultQueueDepth
	}
	d := &Distributor{opts: opts, log: opts.Logger, sink: opts.Metrics}
	d.snap.Store(&snapshot{byName: map[string]*route{}})
	return d
}

// SetSites replaces the site table. On a running distributor new sites are
// brought up and started, and removed sites are stopped and taken down.
// Sites present in both tables keep running untouched.
func (d *Distributor) SetSites(sites []*site.Site) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.snap.Load()
	next := &snapshot{byName: make(map[string]*route, len(sites))}
	var added []*route
	for _, s := range sites {
		if _, dup := next.byName[s.Name()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateSite, s.Name())
		}
		r, ok := old.byName[s.Name()]
		if !ok || r.site != s {
			r = &route{site: s, queue: make(chan outbound, d.opts.QueueDepth), done: make(chan struct{})}
			added = append(added, r)
		}
		next.routes = append(next.routes, r)
		next.byName[s.Name()] = r
	}

	if d.running {
		for i, r := range added {
			if err := r.site.Up(d.ctx); err != nil {
				for _, prev := range added[:i] {
					prev.site.Down()
				}
				return err
			}
		}
	}
	d.snap.Store(next)

	if !d.running {
		return nil
	}
	for _, r := range old.routes {
		if cur, ok := next.byName[r.site.Name()]; !ok || cur != r {
			close(r.done)
			r.cancel()
			r.site.Down()
		}
	}
	for _, r := range added {
		d.startRoute(r)
	}
	return nil
}

// Sites returns the current sites in configuration order.
func (d *Distributor) Sites() []*site.Site {
	snap := d.snap.Load()
	out := make([]*site.Site, len(snap.routes))
	for i, r := range snap.routes {
		out[i] = r.site
	}
	return out
}

// Site looks a site up by name.
func (d *Distributor) Site(name string) (*site.Site, bool) {
	r, ok := d.snap.Load().byName[name]
	if !ok {
		return nil, false
	}
	return r.site, true
}

// Start brings every site up in parallel and starts the workers. If any
// site fails to come up, every site is taken down again and the error is
// returned.
func (d *Distributor) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrAlreadyRunning
	}
	snap := d.snap.Load()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range snap.routes {
		s := r.site
		g.Go(func() error { return s.Up(gctx) })
	}
	if err := g.Wait(); err != nil {
		for _, r := range snap.routes {
			r.site.Down()
		}
		return err
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	d.running = true
	for _, r := range snap.routes {
		d.startRoute(r)
	}
	return nil
}

func (d *Distributor) startRoute(r *route) {
	rctx, cancel := context.WithCancel(d.ctx)
	r.cancel = cancel
	r.site.OnLinkLost(d.linkLost)
	d.wg.Add(2)
	go d.pump(rctx, r)
	go d.sender(rctx, r)
}

// Stop cancels the workers, waits for them and takes every site down.
func (d *Distributor) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}
	d.cancel()
	d.wg.Wait()
	for _, r := range d.snap.Load().routes {
		r.site.Down()
	}
	d.running = false
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Distributor) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Stats returns the relay counters.
func (d *Distributor) Stats() *metrics.Summary { return d.sink.Summary() }

// linkLost runs on the sender goroutine whose sends kept failing.
func (d *Distributor) linkLost(s *site.Site, err error) {
	d.log.LogLink(s.Name(), string(s.Provider().Kind()), false, err)
	d.sink.RecordLinkDown(s.Name())
	s.Down()
}

func sleepCtx(ctx context.Context, dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
