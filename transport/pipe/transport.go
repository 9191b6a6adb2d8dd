package pipe

import (
	"context"
	"net"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var (
	ErrAddrInUse          = errors.New("address already in use")
	ErrConnRefused        = errors.New("connection refused")
	ErrConnListenerClosed = errors.New("conn listener is closed")
)

// Transport connects dialers to listeners by address string, like a
// loopback network that never leaves the process.
type Transport struct {
	listeners map[string]*Listener
	clock     clock.Clock
	bufSize   int

	mu sync.Mutex
}

func NewTransport(clock clock.Clock) *Transport {
	return &Transport{
		listeners: make(map[string]*Listener),
		clock:     clock,
		bufSize:   DefaultBufSize,
	}
}

// DialContext has the signature of [net.Dialer.DialContext].
// network is ignored.
func (t *Transport) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.Lock()
	listener, ok := t.listeners[address]
	t.mu.Unlock()

	if !ok {
		return nil, errors.Wrapf(ErrConnRefused, "dial %s", address)
	}

	local, remote := Pair("dialer", address, t.clock, t.bufSize)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-listener.closed:
		return nil, errors.Wrapf(ErrConnRefused, "dial %s", address)
	case listener.conns <- remote:
		return local, nil
	}
}

func (t *Transport) Listen(address string) (*Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.listeners[address]; ok {
		return nil, errors.Wrap(ErrAddrInUse, address)
	}

	l := &Listener{
		addr:      Addr{Name: address},
		transport: t,
		conns:     make(chan *Conn),
		closed:    make(chan struct{}),
	}
	t.listeners[address] = l

	return l, nil
}

type Listener struct {
	addr      Addr
	transport *Transport

	conns  chan *Conn
	closed chan struct{}
	once   sync.Once
}

func (l *Listener) Addr() net.Addr { return l.addr }

func (l *Listener) Accept(ctx context.Context) (net.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, ErrConnListenerClosed
	case conn := <-l.conns:
		return conn, nil
	}
}

// Close stops accepting. Pending dials are refused.
func (l *Listener) Close() error {
	err := ErrConnListenerClosed
	l.once.Do(func() {
		close(l.closed)

		l.transport.mu.Lock()
		delete(l.transport.listeners, l.addr.Name)
		l.transport.mu.Unlock()

		err = nil
	})
	return err
}
