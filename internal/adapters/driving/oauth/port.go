package oauth

import (
	"fmt"
	"net"
)

// FindAvailablePort returns the first loopback port in [start, end] that can
// be bound right now. The port is released before returning.
func FindAvailablePort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		l.Close()
		return port, nil
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, end)
}
