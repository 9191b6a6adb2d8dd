// Package pipe provides in-memory connections that behave like TCP sockets:
// buffered, full-duplex, with deadlines and half-close on peer shutdown.
package pipe

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const DefaultBufSize = 4096

type Addr struct {
	Name string
}

func (a Addr) Network() string { return "pipe" }
func (a Addr) String() string  { return a.Name }

var _ net.Addr = Addr{}

// half is one direction of a pipe pair.
type half struct {
	mu   sync.Mutex
	cond sync.Cond

	buf  bytes.Buffer // protected by mu.
	size int

	rclosed bool // reading end was closed.
	wclosed bool // writing end was closed.
}

func newHalf(size int) *half {
	h := &half{size: size}
	h.cond.L = &h.mu
	h.buf.Grow(size)
	return h
}

func (h *half) wake() {
	h.mu.Lock()
	h.cond.Broadcast()
	h.mu.Unlock()
}

type Conn struct {
	in, out *half

	writeMu sync.Mutex // serializes writers.

	rdeadline, wdeadline *deadline

	local, remote Addr
	closeOnce     sync.Once
}

var _ net.Conn = (*Conn)(nil)

// Pair creates a connected pair of conns. Each side buffers up to bufSize
// bytes written by its counterpart, so bufSize MUST be more than 0.
func Pair(name1, name2 string, clock clock.Clock, bufSize int) (c1, c2 *Conn) {
	if bufSize <= 0 {
		panic("buffer size must be positive")
	}

	h1, h2 := newHalf(bufSize), newHalf(bufSize)

	c1 = &Conn{
		in: h1, out: h2,
		rdeadline: newDeadline(clock), wdeadline: newDeadline(clock),
		local: Addr{name1}, remote: Addr{name2},
	}
	c2 = &Conn{
		in: h2, out: h1,
		rdeadline: newDeadline(clock), wdeadline: newDeadline(clock),
		local: Addr{name2}, remote: Addr{name1},
	}
	return c1, c2
}

func (c *Conn) LocalAddr() net.Addr  { return c.local }
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// Read returns buffered bytes even after the counterpart closed, and io.EOF
// once they are drained.
func (c *Conn) Read(b []byte) (int, error) {
	h := c.in
	h.mu.Lock()
	defer h.mu.Unlock()

	for {
		switch {
		case h.rclosed:
			return 0, net.ErrClosed
		case c.rdeadline.exceeded():
			return 0, os.ErrDeadlineExceeded
		case h.buf.Len() > 0:
			n, _ := h.buf.Read(b)
			// Writer might be waiting for room.
			h.cond.Broadcast()
			return n, nil
		case h.wclosed:
			return 0, io.EOF
		}

		h.cond.Wait()
	}
}

func (c *Conn) Write(b []byte) (n int, err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	h := c.out
	h.mu.Lock()
	defer h.mu.Unlock()

	for len(b) > 0 {
		switch {
		case h.wclosed:
			return n, net.ErrClosed
		case h.rclosed:
			return n, io.ErrClosedPipe
		case c.wdeadline.exceeded():
			return n, os.ErrDeadlineExceeded
		}

		if room := h.size - h.buf.Len(); room > 0 {
			k := min(room, len(b))
			h.buf.Write(b[:k])
			b = b[k:]
			n += k
			h.cond.Broadcast()
			continue
		}

		h.cond.Wait()
	}

	return n, nil
}

// Close shuts both directions down. The counterpart can still read what was
// written before.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.rdeadline.stop()
		c.wdeadline.stop()

		c.in.mu.Lock()
		c.in.rclosed = true
		c.in.cond.Broadcast()
		c.in.mu.Unlock()

		c.out.mu.Lock()
		c.out.wclosed = true
		c.out.cond.Broadcast()
		c.out.mu.Unlock()
	})
	return nil
}

func (c *Conn) SetDeadline(t time.Time) error {
	c.rdeadline.set(t, c.in.wake)
	c.wdeadline.set(t, c.out.wake)
	return nil
}

func (c *Conn) SetReadDeadline(t time.Time) error {
	c.rdeadline.set(t, c.in.wake)
	return nil
}

func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.wdeadline.set(t, c.out.wake)
	return nil
}

type deadline struct {
	clock clock.Clock

	m     sync.Mutex
	timer *clock.Timer
	t     time.Time
}

func newDeadline(clock clock.Clock) *deadline { return &deadline{clock: clock} }

// set arms onExceed to run once t passes. Zero t means no deadline.
func (d *deadline) set(t time.Time, onExceed func()) {
	d.m.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.t = t

	if !t.IsZero() {
		d.timer = d.clock.AfterFunc(d.clock.Until(t), onExceed)
	}
	d.m.Unlock()

	// Waiters re-check against the new deadline.
	onExceed()
}

func (d *deadline) stop() {
	d.m.Lock()
	defer d.m.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *deadline) exceeded() bool {
	d.m.Lock()
	defer d.m.Unlock()

	if d.t.IsZero() {
		return false
	}
	return d.clock.Until(d.t) <= 0
}
