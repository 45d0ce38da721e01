package provider

import (
	"context"
	"fmt"
	"net"
	"sync"

	"golang.org/x/net/ipv4"

	"github.com/tturner/simbridge/internal/netdetect"
)

// Multicast joins an IPv4 group on Port and sends every datagram to the
// group plus any extra destinations. Loopback is enabled so peers on the
// same host hear each other; the provider's own datagrams are dropped.
type Multicast struct {
	opts  Options
	group *net.UDPAddr
	dests []*net.UDPAddr

	mu     sync.RWMutex
	conn   *net.UDPConn
	pconn  *ipv4.PacketConn
	ifi    *net.Interface
	echoes addrSet
}

var _ Provider = (*Multicast)(nil)

// NewMulticast validates opts and returns an unopened provider.
func NewMulticast(opts Options) (*Multicast, error) {
	opts.applyDefaults()
	ip := net.ParseIP(opts.MulticastGroup)
	if ip == nil || ip.To4() == nil || !ip.IsMulticast() {
		return nil, fmt.Errorf("%w: multicast_group %q is not an IPv4 multicast address", ErrInvalidOptions, opts.MulticastGroup)
	}
	if opts.Port <= 0 {
		return nil, fmt.Errorf("%w: multicast needs a port", ErrInvalidOptions)
	}
	dests, err := resolveDestinations(opts)
	if err != nil {
		return nil, err
	}
	group := &net.UDPAddr{IP: ip, Port: opts.Port}
	return &Multicast{opts: opts, group: group, dests: append([]*net.UDPAddr{group}, dests...)}, nil
}

func (m *Multicast) Kind() Kind { return KindMulticast }

// Addr reports the group port; the socket binds every local address.
func (m *Multicast) Addr() string {
	return listenAddr("", m.opts.Port) + " (group " + m.group.IP.String() + ")"
}

// Group returns the multicast group address.
func (m *Multicast) Group() *net.UDPAddr { return m.group }

// Open binds the group port and joins the group.
func (m *Multicast) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return nil
	}
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: m.opts.Port})
	if err != nil {
		return fmt.Errorf("%w: listen UDP for multicast: %w", ErrOpen, err)
	}
	p := ipv4.NewPacketConn(conn)

	ifi, err := netdetect.ResolveInterface(m.opts.Interface, m.opts.ListenIP)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if ifi != nil {
		if err := p.SetMulticastInterface(ifi); err != nil {
			_ = conn.Close()
			return fmt.Errorf("%w: set multicast interface: %w", ErrOpen, err)
		}
	}
	if err := p.JoinGroup(ifi, &net.UDPAddr{IP: m.group.IP}); err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: join multicast group %s: %w", ErrOpen, m.group.IP, err)
	}
	if err := p.SetMulticastTTL(m.opts.TTL); err != nil {
		_ = p.LeaveGroup(ifi, &net.UDPAddr{IP: m.group.IP})
		_ = conn.Close()
		return fmt.Errorf("%w: set multicast TTL: %w", ErrOpen, err)
	}
	if err := p.SetMulticastLoopback(true); err != nil {
		_ = p.LeaveGroup(ifi, &net.UDPAddr{IP: m.group.IP})
		_ = conn.Close()
		return fmt.Errorf("%w: set multicast loopback: %w", ErrOpen, err)
	}

	m.conn = conn
	m.pconn = p
	m.ifi = ifi
	m.echoes = localAddrs(conn.LocalAddr().(*net.UDPAddr))
	return nil
}

// Close leaves the group and releases the socket.
func (m *Multicast) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil
	}
	if m.pconn != nil {
		_ = m.pconn.LeaveGroup(m.ifi, &net.UDPAddr{IP: m.group.IP})
	}
	err := m.conn.Close()
	m.conn = nil
	m.pconn = nil
	m.ifi = nil
	m.echoes = nil
	return err
}

func (m *Multicast) IsOpen() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn != nil
}

// Send writes b to the group and every extra destination.
func (m *Multicast) Send(ctx context.Context, b []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.conn == nil {
		return ErrNotOpen
	}
	return writeAll(ctx, m.conn, m.dests, b)
}

// Receive returns the next group datagram not sent by this provider.
func (m *Multicast) Receive(ctx context.Context) ([]byte, error) {
	m.mu.RLock()
	conn, echoes := m.conn, m.echoes
	m.mu.RUnlock()

	if conn == nil {
		return nil, ErrNotOpen
	}
	return readLoop(ctx, conn, m.opts, echoes)
}
