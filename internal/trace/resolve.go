package trace

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/miekg/dns"
)

var ErrUnresolved = errors.New("destination could not be resolved")

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-\.]{0,251}[a-zA-Z0-9]\.[a-zA-Z]{2,}$`)

// HostResolver turns a destination into an IP address
type HostResolver interface {
	Resolve(ctx context.Context, host string) (string, error)
}

// Resolver queries a DNS server for A records
type Resolver struct {
	server string
	client *dns.Client
}

// NewResolver creates a resolver that asks server (host:port)
func NewResolver(server string) *Resolver {
	return &Resolver{server: server, client: new(dns.Client)}
}

// Resolve returns literal IPs unchanged and the first A record of a hostname otherwise
func (r *Resolver) Resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}
	if !hostnameRegex.MatchString(host) {
		return "", fmt.Errorf("%w: invalid hostname %q", ErrUnresolved, host)
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	resp, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return "", fmt.Errorf("dns query for %s: %w", host, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("%w: %s returned %s", ErrUnresolved, host, dns.RcodeToString[resp.Rcode])
	}
	for _, rr := range resp.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.String(), nil
		}
	}
	return "", fmt.Errorf("%w: no A record for %s", ErrUnresolved, host)
}
