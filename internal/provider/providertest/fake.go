// Package providertest provides an in-memory Provider for tests.
package providertest

import (
	"context"
	"sync"
	"time"

	"github.com/tturner/simbridge/internal/provider"
)

// Kind is reported by every Fake.
const Kind provider.Kind = "memory"

// Fake is a Provider backed by channels. Datagrams passed to Deliver are
// returned by Receive; datagrams passed to Send are recorded.
type Fake struct {
	inbox chan []byte

	mu       sync.Mutex
	open     bool
	closed   chan struct{}
	sent     [][]byte
	opens    int
	closes   int
	sendErr  error
	failures int
	openErr  error
	block    bool
	blocked  int
	notify   chan struct{}
}

var _ provider.Provider = (*Fake)(nil)

// New returns a closed Fake.
func New() *Fake {
	return &Fake{
		inbox:  make(chan []byte, 1024),
		notify: make(chan struct{}, 1),
	}
}

func (f *Fake) Kind() provider.Kind { return Kind }

func (f *Fake) Addr() string { return "memory" }

func (f *Fake) Open(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	if !f.open {
		f.open = true
		f.closed = make(chan struct{})
		f.opens++
	}
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.open = false
		close(f.closed)
		f.closes++
	}
	return nil
}

func (f *Fake) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// FailOpen makes Open return err.
func (f *Fake) FailOpen(err error) {
	f.mu.Lock()
	f.openErr = err
	f.mu.Unlock()
}

// FailSends makes the next n sends return err. n < 0 fails every send.
func (f *Fake) FailSends(n int, err error) {
	f.mu.Lock()
	f.failures = n
	f.sendErr = err
	f.mu.Unlock()
}

// BlockSends makes every later Send wait until its context is done.
func (f *Fake) BlockSends() {
	f.mu.Lock()
	f.block = true
	f.mu.Unlock()
}

// Blocked returns how many sends are waiting under BlockSends.
func (f *Fake) Blocked() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.blocked
}

func (f *Fake) Send(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	if f.open && f.block {
		f.blocked++
		f.mu.Unlock()
		<-ctx.Done()
		f.mu.Lock()
		f.blocked--
		f.mu.Unlock()
		return ctx.Err()
	}
	defer f.mu.Unlock()
	if !f.open {
		return provider.ErrNotOpen
	}
	if f.failures != 0 {
		if f.failures > 0 {
			f.failures--
		}
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), b...))
	select {
	case f.notify <- struct{}{}:
	default:
	}
	return nil
}

func (f *Fake) Receive(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	open, closed := f.open, f.closed
	f.mu.Unlock()
	if !open {
		return nil, provider.ErrNotOpen
	}
	select {
	case b := <-f.inbox:
		return b, nil
	case <-closed:
		return nil, provider.ErrNotOpen
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver queues b for Receive.
func (f *Fake) Deliver(b []byte) {
	f.inbox <- append([]byte(nil), b...)
}

// Sent returns a copy of every datagram sent so far.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// Counts returns how many times the Fake was opened and closed.
func (f *Fake) Counts() (opens, closes int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens, f.closes
}

// WaitSent waits until at least n datagrams were sent or d elapses, and
// returns what was sent.
func (f *Fake) WaitSent(n int, d time.Duration) [][]byte {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	for {
		if sent := f.Sent(); len(sent) >= n {
			return sent
		}
		select {
		case <-f.notify:
		case <-deadline.C:
			return f.Sent()
		}
	}
}
