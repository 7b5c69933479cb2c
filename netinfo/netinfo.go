package netinfo

/*
Selection of the IPv4 address a responder advertises in replies. The
host usually has several interfaces; the default strategy walks them in
kernel enumeration order (stable between calls) and takes the first
IPv4 on an interface that is up and not loopback. Deployments where the
first match is the wrong network pin a specific interface by name
instead of relying on the heuristic.
*/

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoInterface means no usable IPv4 address exists on the host. For a
// responder this is fatal at startup, not a per-packet condition.
var ErrNoInterface = errors.New("no non-loopback IPv4 interface found")

// LocalIPv4 returns the host's reachable IPv4 address. With an empty
// ifaceName it applies the first-match heuristic; otherwise only the
// named interface is considered and it is an error for it to be absent
// or to carry no IPv4 address.
func LocalIPv4(ifaceName string) (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("enumerate interfaces failed:%v", err)
	}

	if len(ifaceName) != 0 {
		for _, ifi := range ifaces {
			if ifi.Name != ifaceName {
				continue
			}
			if ip := firstIPv4(&ifi); ip != nil {
				return ip, nil
			}
			return nil, fmt.Errorf("interface %s has no usable IPv4 address", ifaceName)
		}
		return nil, fmt.Errorf("interface %s not found", ifaceName)
	}

	for _, ifi := range ifaces {
		if ifi.Flags&net.FlagUp == 0 || ifi.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ip := firstIPv4(&ifi); ip != nil {
			return ip, nil
		}
	}
	return nil, ErrNoInterface
}

func firstIPv4(ifi *net.Interface) net.IP {
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		return ip
	}
	return nil
}
