package remote

import (
	"context"
	"net"
	"net/url"
	"time"
)

// Probe approximates a browser's online flag by opening a TCP connection to
// the host of the score endpoint.
type Probe struct {
	addr    string
	timeout time.Duration
}

func NewProbe(endpoint string, timeout time.Duration) *Probe {
	return &Probe{addr: dialAddr(endpoint), timeout: timeout}
}

func (p *Probe) Online(ctx context.Context) bool {
	if p.addr == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func dialAddr(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
