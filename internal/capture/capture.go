// Package capture records relayed datagrams to a pcap file.
//
// The relay sees payloads, not frames, so each datagram is wrapped in a
// synthesized Ethernet/IPv4/UDP frame. Every site name maps to a stable
// 10.77.x.y address so a capture can be filtered per site.
package capture

import (
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Port is the UDP port written on synthesized frames.
const Port = 3000

const snapLen = 65535

// Recorder writes frames to a pcap file. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	file   *os.File
	writer *pcapgo.Writer
	count  int
	closed bool
}

// NewRecorder creates path and writes the pcap file header.
func NewRecorder(path string) (*Recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create pcap file: %w", err)
	}
	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		file.Close()
		return nil, fmt.Errorf("write pcap header: %w", err)
	}
	return &Recorder{file: file, writer: writer}, nil
}

// SiteAddr returns the synthetic address used for site.
func SiteAddr(site string) net.IP {
	h := fnv.New32a()
	h.Write([]byte(site))
	v := h.Sum32()
	return net.IPv4(10, 77, byte(v>>8), byte(v)).To4()
}

func siteMAC(site string) net.HardwareAddr {
	ip := SiteAddr(site)
	return net.HardwareAddr{0x02, 0x00, ip[0], ip[1], ip[2], ip[3]}
}

// Frame builds the Ethernet/IPv4/UDP frame for one datagram.
func Frame(src, dst string, payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       siteMAC(src),
		DstMAC:       siteMAC(dst),
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		SrcIP:    SiteAddr(src),
		DstIP:    SiteAddr(dst),
		Protocol: layers.IPProtocolUDP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(Port),
		DstPort: layers.UDPPort(Port),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("udp checksum layer: %w", err)
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("serialize frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Record writes payload as a datagram from site src to site dst.
func (r *Recorder) Record(src, dst string, payload []byte, ts time.Time) error {
	frame, err := Frame(src, dst, payload)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("recorder closed")
	}
	ci := gopacket.CaptureInfo{Timestamp: ts, CaptureLength: len(frame), Length: len(frame)}
	if err := r.writer.WritePacket(ci, frame); err != nil {
		return fmt.Errorf("write packet: %w", err)
	}
	r.count++
	return nil
}

// Count returns the number of frames written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Close closes the file (idempotent).
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}
