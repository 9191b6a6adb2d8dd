package transport

import (
	"net"
	"os"
	"time"

	iolib "wirehttp/lib/io"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// Conn is an exclusively owned client connection, plain or TLS.
//
// Bytes read past a message boundary are pushed back with Unread and are
// served before the socket is read again.
type Conn struct {
	nc    net.Conn
	r     *iolib.UntilReader
	clock clock.Clock

	deadline time.Time
	closed   bool
}

func NewConn(nc net.Conn, clock clock.Clock) *Conn {
	c := &Conn{nc: nc, clock: clock}
	c.r = iolib.NewUntilReader(readerFunc(c.readSocket))
	return c
}

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

func (c *Conn) readSocket(p []byte) (int, error) {
	if err := c.checkDeadline(); err != nil {
		return 0, err
	}
	return c.nc.Read(p)
}

// checkDeadline fails once the deadline has passed, so no syscall is
// started that could only time out.
func (c *Conn) checkDeadline() error {
	if !c.deadline.IsZero() && !c.clock.Now().Before(c.deadline) {
		return errors.Wrap(os.ErrDeadlineExceeded, "connection deadline passed")
	}
	return nil
}

// SetDeadline bounds every later read and write, both before and during the
// syscall. Zero t removes the bound.
func (c *Conn) SetDeadline(t time.Time) error {
	c.deadline = t
	if err := c.nc.SetDeadline(t); err != nil {
		return errors.Wrap(err, "setting socket deadline")
	}
	return nil
}

func (c *Conn) Deadline() time.Time { return c.deadline }

func (c *Conn) Read(p []byte) (int, error) { return c.r.Read(p) }

func (c *Conn) Write(p []byte) (int, error) {
	if err := c.checkDeadline(); err != nil {
		return 0, err
	}
	return c.nc.Write(p)
}

func (c *Conn) Unread(p []byte) { c.r.Unread(p) }

// Buffered returns the number of bytes read past a boundary but not yet
// consumed.
func (c *Conn) Buffered() int { return c.r.Buffered() }

// ReadUntilLimit reads until delim, holding no more than limit bytes.
// See [iolib.UntilReader.ReadUntilLimit].
func (c *Conn) ReadUntilLimit(delim []byte, limit uint) ([]byte, error) {
	return c.r.ReadUntilLimit(delim, limit)
}

func (c *Conn) LocalAddr() net.Addr  { return c.nc.LocalAddr() }
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Close closes the socket. Closing twice is a no-op.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	return c.nc.Close()
}
