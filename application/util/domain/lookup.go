package domain

import (
	"context"
	"maps"
	"net"
	"net/netip"
	"slices"

	"github.com/pkg/errors"

	"wirehttp/lib/slice"
)

var ErrDomainNotFound = errors.New("domain not found")

// Lookuper resolves a host to candidate addresses, in preference order.
type Lookuper interface {
	LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error)
}

type mapLookuper struct {
	set map[string][]netip.Addr
}

var _ Lookuper = (*mapLookuper)(nil)

func NewMapLookuper(set map[string][]netip.Addr) *mapLookuper {
	if set == nil {
		set = make(map[string][]netip.Addr)
	}
	return &mapLookuper{set: maps.Clone(set)}
}

func (m *mapLookuper) LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error) {
	addrs, ok := m.set[domain]
	if !ok {
		return nil, ErrDomainNotFound
	}
	return slices.Clone(addrs), nil
}

func (m *mapLookuper) Set(domain string, addrs []netip.Addr) {
	if len(addrs) == 0 {
		return
	}
	m.set[domain] = addrs
}

func (m *mapLookuper) Del(domain string) { delete(m.set, domain) }

type netLookuper struct {
	resolver *net.Resolver
}

var _ Lookuper = (*netLookuper)(nil)

// NewNetLookuper resolves through r, or [net.DefaultResolver] when r is nil.
// IP literals are returned as is without a query.
func NewNetLookuper(r *net.Resolver) *netLookuper {
	if r == nil {
		r = net.DefaultResolver
	}
	return &netLookuper{resolver: r}
}

func (n *netLookuper) LookupIP(ctx context.Context, domain string) ([]netip.Addr, error) {
	if addr, err := netip.ParseAddr(trimBrackets(domain)); err == nil {
		return []netip.Addr{addr}, nil
	}

	addrs, err := n.resolver.LookupNetIP(ctx, "ip", domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, errors.Wrap(ErrDomainNotFound, domain)
		}
		return nil, errors.Wrap(err, "looking up domain")
	}

	return sliceutil.Map(addrs, netip.Addr.Unmap), nil
}

func trimBrackets(host string) string {
	if len(host) >= 2 && host[0] == '[' && host[len(host)-1] == ']' {
		return host[1 : len(host)-1]
	}
	return host
}
