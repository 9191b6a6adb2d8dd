package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	iolib "wirehttp/lib/io"
	"wirehttp/transport/pipe"
)

// received is a request as it arrived on the wire.
type received struct {
	head string
	body string
}

func (r received) requestLine() string {
	line, _, _ := strings.Cut(r.head, "\r\n")
	return line
}

func (r received) header(name string) (string, bool) {
	for line := range strings.SplitSeq(r.head, "\r\n") {
		k, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(k, name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// fakeServer answers one connection per scripted response, then closes it.
// An empty response means no answer: the server waits for the client to
// hang up.
type fakeServer struct {
	lis *pipe.Listener

	mu       sync.Mutex
	requests []received

	arrived chan struct{}
	done    chan struct{}
}

func newFakeServer(lis *pipe.Listener, responses []string) *fakeServer {
	fs := &fakeServer{
		lis:     lis,
		arrived: make(chan struct{}, len(responses)),
		done:    make(chan struct{}),
	}
	go fs.run(responses)
	return fs
}

func (fs *fakeServer) run(responses []string) {
	defer close(fs.done)

	for _, response := range responses {
		conn, err := fs.lis.Accept(context.Background())
		if err != nil {
			return
		}
		fs.handle(conn, response)
	}
}

func (fs *fakeServer) handle(conn net.Conn, response string) {
	defer conn.Close()

	r := iolib.NewUntilReader(conn)
	head, err := r.ReadUntilLimit([]byte("\r\n\r\n"), 0)
	if err != nil {
		return
	}

	req := received{head: string(head)}
	if req.body, err = readBody(r, req); err != nil {
		return
	}

	fs.mu.Lock()
	fs.requests = append(fs.requests, req)
	fs.mu.Unlock()
	fs.arrived <- struct{}{}

	if response == "" {
		_, _ = io.Copy(io.Discard, r)
		return
	}
	_, _ = conn.Write([]byte(response))
}

func readBody(r *iolib.UntilReader, req received) (string, error) {
	if v, ok := req.header("Content-Length"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return "", err
		}
		buf := make([]byte, n)
		_, err = io.ReadFull(r, buf)
		return string(buf), err
	}

	if _, ok := req.header("Transfer-Encoding"); ok {
		b, err := r.ReadUntilLimit([]byte("0\r\n\r\n"), 0)
		return string(b), err
	}

	return "", nil
}

func (fs *fakeServer) got() []received {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]received(nil), fs.requests...)
}

func (fs *fakeServer) stop() {
	_ = fs.lis.Close()
	<-fs.done
}
