// Package transport opens client connections: it resolves the host, tries
// each address in turn and layers TLS on top when the scheme asks for it.
package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"time"

	"wirehttp/application/util/domain"
	"wirehttp/application/util/uri"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var ErrNoAddress = errors.New("no ip address")

// ResolveError is a failure to turn a host into addresses.
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	if errors.Is(e.Err, ErrNoAddress) {
		return "No ip address for " + e.Host
	}
	return fmt.Sprintf("resolving %s: %s", e.Host, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// DialError is the failure of the last address tried.
type DialError struct {
	Addr string
	Err  error
}

func (e *DialError) Error() string { return fmt.Sprintf("dialing %s: %s", e.Addr, e.Err) }
func (e *DialError) Unwrap() error { return e.Err }

// HandshakeError is a failure to establish TLS, certificate
// verification included.
type HandshakeError struct {
	ServerName string
	Err        error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("tls handshake with %s: %s", e.ServerName, e.Err)
}
func (e *HandshakeError) Unwrap() error { return e.Err }

// Dialer is satisfied by [net.Dialer].
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type DialOptions struct {
	// ConnectTimeout bounds resolution, every dial attempt and the TLS
	// handshake together. Zero means no limit.
	ConnectTimeout time.Duration
	// Deadline is set on the connection and also bounds connecting.
	// Zero means none.
	Deadline time.Time
}

type Connector struct {
	resolver domain.Lookuper
	dialer   Dialer
	trust    *TrustConfig

	logger *slog.Logger
	clock  clock.Clock
}

// NewConnector creates a connector. trust is needed only for https.
func NewConnector(
	resolver domain.Lookuper,
	dialer Dialer,
	trust *TrustConfig,
	logger *slog.Logger,
	clock clock.Clock,
) *Connector {
	return &Connector{
		resolver: resolver,
		dialer:   dialer,
		trust:    trust,
		logger:   logger,
		clock:    clock,
	}
}

// Connect opens a connection to the host and port of u.
//
// Addresses are tried in the order the resolver returns them and the first
// one that connects wins. When the time budget runs out before an address
// is tried, Connect fails with an error wrapping [os.ErrDeadlineExceeded]
// instead of trying it.
func (c *Connector) Connect(ctx context.Context, u uri.URL, opts DialOptions) (*Conn, error) {
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if !opts.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = c.clock.WithDeadline(ctx, opts.Deadline)
		defer cancel()
	}

	host := u.Host()
	addrs, err := c.resolver.LookupIP(ctx, host)
	if err != nil {
		return nil, &ResolveError{Host: host, Err: err}
	}
	if len(addrs) == 0 {
		return nil, &ResolveError{Host: host, Err: ErrNoAddress}
	}

	var lastErr error
	for _, addr := range addrs {
		address := netip.AddrPortFrom(addr, u.Port()).String()

		if err := ctx.Err(); err != nil {
			return nil, budgetError(err, address)
		}

		c.logger.Debug("connecting", slog.String("host", host), slog.String("addr", address))

		nc, err := c.dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			c.logger.Debug("connect failed", slog.String("addr", address), slog.Any("error", err))
			lastErr = &DialError{Addr: address, Err: err}
			continue
		}

		if u.IsTLS() {
			nc, err = c.handshake(ctx, nc, host)
			if err != nil {
				return nil, err
			}
		}

		conn := NewConn(nc, c.clock)
		if err := conn.SetDeadline(opts.Deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}

		return conn, nil
	}

	return nil, lastErr
}

func budgetError(err error, address string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(os.ErrDeadlineExceeded, "connect timed out before trying %s", address)
	}
	return errors.Wrapf(err, "connect aborted before trying %s", address)
}

func (c *Connector) handshake(ctx context.Context, nc net.Conn, serverName string) (net.Conn, error) {
	trust := c.trust
	if trust == nil {
		var err error
		if trust, err = DefaultTrust(); err != nil {
			_ = nc.Close()
			return nil, &HandshakeError{ServerName: serverName, Err: err}
		}
	}

	tc := tls.Client(nc, trust.clientConfig(serverName))
	if err := tc.HandshakeContext(ctx); err != nil {
		_ = nc.Close()
		return nil, &HandshakeError{ServerName: serverName, Err: err}
	}

	return tc, nil
}
