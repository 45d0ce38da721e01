package netdetect

import (
	"net"
	"testing"
)

func TestGetInterfaceAddressString(t *testing.T) {
	tests := []struct {
		name     string
		info     InterfaceInfo
		expected string
	}{
		{
			name:     "No addresses",
			info:     InterfaceInfo{Addresses: nil},
			expected: "no addresses",
		},
		{
			name:     "Single address",
			info:     InterfaceInfo{Addresses: []string{"192.168.1.100"}},
			expected: "192.168.1.100",
		},
		{
			name:     "Three addresses",
			info:     InterfaceInfo{Addresses: []string{"192.168.1.100", "10.0.0.1", "172.16.0.1"}},
			expected: "192.168.1.100, 10.0.0.1, 172.16.0.1",
		},
		{
			name: "More than three addresses",
			info: InterfaceInfo{Addresses: []string{
				"192.168.1.100", "10.0.0.1", "172.16.0.1", "172.16.0.2", "8.8.8.8",
			}},
			expected: "192.168.1.100, 10.0.0.1, 172.16.0.1 (+2 more)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetInterfaceAddressString(tt.info)
			if result != tt.expected {
				t.Errorf("GetInterfaceAddressString() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPickInterface(t *testing.T) {
	interfaces := []InterfaceInfo{
		{Name: "lo", Addresses: []string{"127.0.0.1"}, IsUp: true, IsLoopback: true, Multicast: false},
		{Name: "down0", Addresses: []string{"10.9.9.9"}, IsUp: false, Multicast: true},
		{Name: "eth0", Addresses: []string{"192.168.1.10"}, IsUp: true, Multicast: true},
		{Name: "eth1", Addresses: []string{"10.0.0.5"}, IsUp: true, Multicast: true},
	}

	tests := []struct {
		name    string
		ip      string
		want    string
		wantErr bool
	}{
		{name: "unspecified picks first usable", ip: "0.0.0.0", want: "eth0"},
		{name: "loopback", ip: "127.0.0.1", want: "lo"},
		{name: "owning interface", ip: "10.0.0.5", want: "eth1"},
		{name: "down interface still owns address", ip: "10.9.9.9", want: "down0"},
		{name: "unknown address", ip: "172.31.0.1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pickInterface(interfaces, net.ParseIP(tt.ip))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("pickInterface(%s) = %q, want error", tt.ip, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("pickInterface(%s): %v", tt.ip, err)
			}
			if got != tt.want {
				t.Errorf("pickInterface(%s) = %q, want %q", tt.ip, got, tt.want)
			}
		})
	}
}

func TestPickInterfaceNoCandidates(t *testing.T) {
	only := []InterfaceInfo{{Name: "lo", Addresses: []string{"127.0.0.1"}, IsUp: true, IsLoopback: true}}
	if _, err := pickInterface(only, net.IPv4zero); err == nil {
		t.Error("expected error when only loopback is present")
	}
	if _, err := pickInterface(nil, net.ParseIP("127.0.0.1")); err == nil {
		t.Error("expected error without a loopback interface")
	}
}

func TestDetectInterfaceForListenInvalid(t *testing.T) {
	if _, err := DetectInterfaceForListen("not-an-ip"); err == nil {
		t.Fatal("expected error for invalid IP")
	}
}

func TestResolveInterfaceEmpty(t *testing.T) {
	ifi, err := ResolveInterface("  ", "0.0.0.0")
	if err != nil {
		t.Fatalf("ResolveInterface: %v", err)
	}
	if ifi != nil {
		t.Errorf("ResolveInterface(\"\") = %v, want nil", ifi)
	}
}

func TestResolveInterfaceUnknownName(t *testing.T) {
	if _, err := ResolveInterface("simbridge-no-such-if0", ""); err == nil {
		t.Fatal("expected error for unknown interface name")
	}
}

func TestResolveInterfaceLoopback(t *testing.T) {
	interfaces, err := ListInterfaces()
	if err != nil {
		t.Skipf("cannot list interfaces: %v", err)
	}
	var lo string
	for _, iface := range interfaces {
		if iface.IsLoopback && len(iface.Addresses) > 0 {
			lo = iface.Name
			break
		}
	}
	if lo == "" {
		t.Skip("no loopback interface with an IPv4 address")
	}

	for _, setting := range []string{lo, "127.0.0.1"} {
		ifi, err := ResolveInterface(setting, "")
		if err != nil {
			t.Fatalf("ResolveInterface(%q): %v", setting, err)
		}
		if ifi == nil || ifi.Name != lo {
			t.Errorf("ResolveInterface(%q) = %v, want %s", setting, ifi, lo)
		}
	}

	ifi, err := ResolveInterface(Auto, "127.0.0.1")
	if err != nil {
		t.Fatalf("ResolveInterface(auto): %v", err)
	}
	if ifi.Name != lo {
		t.Errorf("ResolveInterface(auto, 127.0.0.1) = %s, want %s", ifi.Name, lo)
	}
}

func TestListInterfaces(t *testing.T) {
	interfaces, err := ListInterfaces()
	if err != nil {
		t.Skipf("cannot list interfaces: %v", err)
	}
	for _, iface := range interfaces {
		if iface.Name == "" {
			t.Error("Interface has empty Name")
		}
		for _, addr := range iface.Addresses {
			if ip := net.ParseIP(addr); ip == nil || ip.To4() == nil {
				t.Errorf("interface %s: %q is not an IPv4 address", iface.Name, addr)
			}
		}
	}
}
