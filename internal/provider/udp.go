package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// UDP sends every datagram to a fixed destination list and receives on one
// bound socket. Datagrams it sent itself, such as broadcast echoes, are
// dropped on receive.
type UDP struct {
	opts  Options
	dests []*net.UDPAddr

	mu     sync.RWMutex
	conn   *net.UDPConn
	echoes addrSet
}

var _ Provider = (*UDP)(nil)

// NewUDP validates opts and returns an unopened provider.
func NewUDP(opts Options) (*UDP, error) {
	opts.applyDefaults()
	dests, err := resolveDestinations(opts)
	if err != nil {
		return nil, err
	}
	if opts.ListenIP != "" && net.ParseIP(opts.ListenIP) == nil {
		return nil, fmt.Errorf("%w: listen_ip %q is not an IP address", ErrInvalidOptions, opts.ListenIP)
	}
	return &UDP{opts: opts, dests: dests}, nil
}

func resolveDestinations(opts Options) ([]*net.UDPAddr, error) {
	var dests []*net.UDPAddr
	for _, d := range opts.Destinations {
		addr, err := net.ResolveUDPAddr("udp4", d)
		if err != nil {
			return nil, fmt.Errorf("%w: destination %q: %v", ErrInvalidOptions, d, err)
		}
		dests = append(dests, addr)
	}
	if opts.Broadcast {
		if opts.Port <= 0 {
			return nil, fmt.Errorf("%w: broadcast needs a port", ErrInvalidOptions)
		}
		dests = append(dests, &net.UDPAddr{IP: net.IPv4bcast, Port: opts.Port})
	}
	return dests, nil
}

func (u *UDP) Kind() Kind { return KindUDP }

func (u *UDP) Addr() string { return listenAddr(u.opts.ListenIP, u.opts.Port) }

func listenAddr(ip string, port int) string {
	if ip == "" {
		ip = "0.0.0.0"
	}
	return net.JoinHostPort(ip, strconv.Itoa(port))
}

// Open binds the listen socket. Opening an open provider is a no-op.
func (u *UDP) Open(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn != nil {
		return nil
	}
	laddr := &net.UDPAddr{IP: net.ParseIP(u.opts.ListenIP), Port: u.opts.Port}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return fmt.Errorf("%w: listen UDP %s: %w", ErrOpen, laddr, err)
	}
	u.conn = conn
	u.echoes = localAddrs(conn.LocalAddr().(*net.UDPAddr))
	return nil
}

// Close releases the socket. Closing a closed provider is a no-op.
func (u *UDP) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	u.echoes = nil
	return err
}

func (u *UDP) IsOpen() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.conn != nil
}

// LocalAddr returns the bound address, or nil when closed.
func (u *UDP) LocalAddr() *net.UDPAddr {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.conn == nil {
		return nil
	}
	return u.conn.LocalAddr().(*net.UDPAddr)
}

// Send writes b to every destination.
func (u *UDP) Send(ctx context.Context, b []byte) error {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if u.conn == nil {
		return ErrNotOpen
	}
	return writeAll(ctx, u.conn, u.dests, b)
}

func writeAll(ctx context.Context, conn *net.UDPConn, dests []*net.UDPAddr, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: set write deadline: %w", ErrSend, err)
		}
	}
	var errs []error
	for _, d := range dests {
		if _, err := conn.WriteToUDP(b, d); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrSend, errors.Join(errs...))
	}
	return nil
}

// Receive returns the next datagram not sent by this provider.
func (u *UDP) Receive(ctx context.Context) ([]byte, error) {
	u.mu.RLock()
	conn, echoes := u.conn, u.echoes
	u.mu.RUnlock()

	if conn == nil {
		return nil, ErrNotOpen
	}
	return readLoop(ctx, conn, u.opts, echoes)
}

// readLoop polls conn until a datagram from a foreign address arrives.
// The poll interval bounds how long a cancelled ctx goes unnoticed.
func readLoop(ctx context.Context, conn *net.UDPConn, opts Options, echoes addrSet) ([]byte, error) {
	buf := make([]byte, opts.MaxDatagram)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deadline := time.Now().Add(opts.ReceiveTimeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		if err := conn.SetReadDeadline(deadline); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, ErrNotOpen
			}
			return nil, fmt.Errorf("%w: set read deadline: %w", ErrReceive, err)
		}
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil, ErrNotOpen
			}
			return nil, fmt.Errorf("%w: %w", ErrReceive, err)
		}
		if echoes.has(src) {
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}

// addrSet holds the ip:port pairs a socket sends from.
type addrSet map[string]struct{}

func (s addrSet) has(a *net.UDPAddr) bool {
	if s == nil || a == nil {
		return false
	}
	_, ok := s[net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))]
	return ok
}

// localAddrs lists the addresses a socket bound to bound can appear to
// send from: the bound IP, or every local interface IP for a wildcard bind.
func localAddrs(bound *net.UDPAddr) addrSet {
	port := strconv.Itoa(bound.Port)
	set := addrSet{}
	add := func(ip net.IP) {
		if ip4 := ip.To4(); ip4 != nil {
			set[net.JoinHostPort(ip4.String(), port)] = struct{}{}
		}
	}
	if bound.IP != nil && !bound.IP.IsUnspecified() {
		add(bound.IP)
		return set
	}
	add(net.IPv4(127, 0, 0, 1))
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return set
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok {
			add(ipn.IP)
		}
	}
	return set
}
