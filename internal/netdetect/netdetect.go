// Package netdetect picks network interfaces for the multicast provider.
package netdetect

import (
	"fmt"
	"net"
	"strings"
)

// Auto asks ResolveInterface to pick an interface from the listen address.
const Auto = "auto"

// InterfaceInfo represents a network interface with its properties.
type InterfaceInfo struct {
	Name       string   // System interface name (e.g., "en0", "eth0")
	Addresses  []string // IPv4 addresses assigned to this interface
	IsUp       bool
	IsLoopback bool
	Multicast  bool // supports multicast
}

// ListInterfaces returns every interface with its IPv4 addresses.
func ListInterfaces() ([]InterfaceInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list network interfaces: %w", err)
	}

	interfaces := make([]InterfaceInfo, 0, len(ifaces))
	for _, iface := range ifaces {
		info := InterfaceInfo{
			Name:       iface.Name,
			IsUp:       iface.Flags&net.FlagUp != 0,
			IsLoopback: iface.Flags&net.FlagLoopback != 0,
			Multicast:  iface.Flags&net.FlagMulticast != 0,
		}
		addrs, err := iface.Addrs()
		if err == nil {
			for _, addr := range addrs {
				if ipn, ok := addr.(*net.IPNet); ok && ipn.IP.To4() != nil {
					info.Addresses = append(info.Addresses, ipn.IP.String())
				}
			}
		}
		interfaces = append(interfaces, info)
	}
	return interfaces, nil
}

// DetectInterfaceForListen returns the interface bound to the given listen IP.
// For 0.0.0.0, returns the first up, multicast-capable, non-loopback interface.
// For 127.0.0.1, returns the loopback interface.
func DetectInterfaceForListen(listenIP string) (string, error) {
	ip := net.ParseIP(listenIP)
	if ip == nil {
		return "", fmt.Errorf("invalid IP address: %s", listenIP)
	}

	interfaces, err := ListInterfaces()
	if err != nil {
		return "", err
	}
	return pickInterface(interfaces, ip)
}

func pickInterface(interfaces []InterfaceInfo, ip net.IP) (string, error) {
	switch {
	case ip.IsUnspecified():
		for _, iface := range interfaces {
			if iface.IsUp && iface.Multicast && !iface.IsLoopback && len(iface.Addresses) > 0 {
				return iface.Name, nil
			}
		}
		return "", fmt.Errorf("no multicast-capable non-loopback interface found")
	case ip.IsLoopback():
		for _, iface := range interfaces {
			if iface.IsLoopback {
				return iface.Name, nil
			}
		}
		return "", fmt.Errorf("no loopback interface found")
	}

	for _, iface := range interfaces {
		for _, addr := range iface.Addresses {
			if addr == ip.String() {
				return iface.Name, nil
			}
		}
	}
	return "", fmt.Errorf("no interface found with IP %s", ip)
}

// ResolveInterface maps an interface setting to a system interface. An
// empty setting returns nil so the system default is used. "auto" picks
// from listenIP; an IP literal names the interface owning that address;
// anything else is an interface name.
func ResolveInterface(setting, listenIP string) (*net.Interface, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" {
		return nil, nil
	}

	name := setting
	if strings.EqualFold(setting, Auto) {
		if listenIP == "" {
			listenIP = "0.0.0.0"
		}
		detected, err := DetectInterfaceForListen(listenIP)
		if err != nil {
			return nil, err
		}
		name = detected
	} else if ip := net.ParseIP(setting); ip != nil {
		detected, err := DetectInterfaceForListen(setting)
		if err != nil {
			return nil, err
		}
		name = detected
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %q: %w", name, err)
	}
	return iface, nil
}

// GetInterfaceAddressString returns a comma-separated list of interface addresses.
func GetInterfaceAddressString(info InterfaceInfo) string {
	if len(info.Addresses) == 0 {
		return "no addresses"
	}
	result := info.Addresses[0]
	for i := 1; i < len(info.Addresses) && i < 3; i++ {
		result += ", " + info.Addresses[i]
	}
	if len(info.Addresses) > 3 {
		result += fmt.Sprintf(" (+%d more)", len(info.Addresses)-3)
	}
	return result
}
