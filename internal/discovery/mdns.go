// Package discovery locates campusctl stub platform servers on the local
// network via mDNS/DNS-SD. The stub server advertises itself as a
// "_campusctl._tcp" service; this package browses for those advertisements
// so a developer can point the panel at a local server without typing an
// address.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type stub platform servers advertise
	ServiceType = "_campusctl._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for server discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is the default HTTP port for stub platform servers
	DefaultPort = 8720
)

// Server represents a discovered stub platform server.
type Server struct {
	// Instance is the advertised service instance name
	Instance string

	// Hostname is the mDNS hostname
	Hostname string

	// IP is the IPv4 address (IPv6 when no IPv4 address was advertised)
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record data (e.g. "version=v0.3.0")
	Metadata map[string]string

	// DiscoveredAt is when the server was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the server
func (s *Server) String() string {
	return fmt.Sprintf("campusctl server %q at %s:%d", s.Instance, s.IP, s.Port)
}

// BaseURL returns the HTTP base URL for the server
func (s *Server) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", s.IP, s.Port)
}

// Scanner handles mDNS server discovery
type Scanner struct {
	// Timeout is the maximum time to wait for advertisements
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{Timeout: DefaultScanTimeout}
}

// ScanForServers discovers all stub platform servers on the local network
func (s *Scanner) ScanForServers() ([]*Server, error) {
	return s.ScanForServersWithContext(context.Background())
}

// ScanForServersWithContext discovers servers with a custom context
func (s *Scanner) ScanForServersWithContext(ctx context.Context) ([]*Server, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	servers := make([]*Server, 0)
	done := make(chan struct{})

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(done)
		for entry := range entries {
			if server := s.parseServiceEntry(entry); server != nil {
				servers = append(servers, server)
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the timeout, then for the collector to drain
	<-ctx.Done()
	<-done

	return servers, nil
}

// parseServiceEntry converts a zeroconf service entry to a Server.
// Returns nil for entries with no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Server {
	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Server{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanForServers is a convenience function to scan with a custom timeout
func ScanForServers(timeout time.Duration) ([]*Server, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.ScanForServers()
}
