// Package client sends HTTP/1.1 requests one at a time, following
// redirects. Every exchange gets its own connection.
package client

import (
	"context"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"time"

	"wirehttp/application/http"
	"wirehttp/application/http/status"
	"wirehttp/application/util/domain"
	"wirehttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Client struct {
	connector *transport.Connector

	opts Options

	logger *slog.Logger
	clock  clock.Clock
}

func New(
	d transport.Dialer,
	lookuper domain.Lookuper,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	return &Client{
		connector: transport.NewConnector(lookuper, d, opts.TLS, logger, clock),
		opts:      opts,
		logger:    logger,
		clock:     clock,
	}
}

// NewDefault creates a client on the system resolver and real sockets.
func NewDefault(logger *slog.Logger, opts Options) *Client {
	return New(&net.Dialer{}, domain.NewNetLookuper(nil), logger, clock.New(), opts)
}

func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.send(ctx, http.MethodGet, rawURL, nil)
}

func (c *Client) Head(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.send(ctx, http.MethodHead, rawURL, nil)
}

func (c *Client) Delete(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.send(ctx, http.MethodDelete, rawURL, nil)
}

func (c *Client) Post(ctx context.Context, rawURL string, payload http.Payload) (*http.Response, error) {
	return c.send(ctx, http.MethodPost, rawURL, payload)
}

func (c *Client) Put(ctx context.Context, rawURL string, payload http.Payload) (*http.Response, error) {
	return c.send(ctx, http.MethodPut, rawURL, payload)
}

func (c *Client) send(ctx context.Context, method, rawURL string, payload http.Payload) (*http.Response, error) {
	request, err := http.NewRequest(method, rawURL, payload)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, request)
}

// Do sends request and follows redirects up to the configured maximum.
//
// The returned response owns its connection, so its body must be closed.
// A 4xx or 5xx response is returned as [*http.StatusError], with the
// response still readable. request is not modified.
func (c *Client) Do(ctx context.Context, request *http.Request) (*http.Response, error) {
	var deadline time.Time
	if c.opts.Timeout.Overall > 0 {
		deadline = c.clock.Now().Add(c.opts.Timeout.Overall)
	}

	req := *request
	req.Headers = request.Headers.Clone()

	var history []string
	for redirects := uint(0); ; redirects++ {
		resp, err := c.exchange(ctx, &req, deadline)
		if err != nil {
			return nil, http.WithURL(err, req.URL.String())
		}
		resp.URL = req.URL
		resp.History = slices.Clone(history)

		if c.opts.Redirect.Max == 0 {
			return finish(resp)
		}

		next, ok, err := nextRequest(&req, resp)
		if err != nil {
			_ = resp.Body.Close()
			return nil, http.WithURL(err, req.URL.String())
		}
		if !ok {
			return finish(resp)
		}

		// Nothing more is read from this connection.
		_ = resp.Body.Close()

		if redirects >= c.opts.Redirect.Max {
			e := http.NewError(http.KindTooManyRedirects,
				"more than "+strconv.FormatUint(uint64(c.opts.Redirect.Max), 10)+" redirects")
			return nil, http.WithURL(e, req.URL.String())
		}

		c.logger.Debug("following redirect",
			slog.Uint64("status", uint64(resp.StatusCode)),
			slog.String("from", req.URL.String()),
			slog.String("to", next.URL.String()),
			slog.String("method", next.Method),
		)

		history = append(history, req.URL.String())
		req = *next
	}
}

// exchange sends request over a new connection and reads the response head.
func (c *Client) exchange(ctx context.Context, request *http.Request, deadline time.Time) (*http.Response, error) {
	conn, err := c.connector.Connect(ctx, request.URL, transport.DialOptions{
		ConnectTimeout: c.opts.Timeout.Connect,
		Deadline:       deadline,
	})
	if err != nil {
		return nil, connectError(err)
	}

	prelude, err := http.NewRequestEncoder(conn, c.opts.Send.Encode).Encode(request)
	if prelude != nil {
		c.logger.Debug("request sent",
			slog.String("addr", conn.RemoteAddr().String()),
			slog.String("prelude", prelude.String()),
		)
	}
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	resp, err := http.NewResponseDecoder(conn, c.opts.Receive.Decode).Decode(request.Method)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	c.logger.Debug("response received",
		slog.String("status", resp.StatusLine.Version.String()+" "+strconv.FormatUint(uint64(resp.StatusCode), 10)),
		slog.String("framing", resp.Body.Framing().String()),
	)

	return resp, nil
}

func connectError(err error) error {
	var re *transport.ResolveError
	switch {
	case errors.As(err, &re):
		return http.WrapError(http.KindDNS, err, "")
	case http.IsTimeout(err):
		return http.WrapError(http.KindTimeout, err, "connecting")
	}
	return http.WrapError(http.KindConnectionFailed, err, "")
}

func finish(resp *http.Response) (*http.Response, error) {
	if status.IsError(resp.StatusCode) {
		return nil, &http.StatusError{Response: resp}
	}
	return resp, nil
}

// OrAnyStatus turns a status error back into its response, so 4xx and 5xx
// are handled like any other status.
func OrAnyStatus(resp *http.Response, err error) (*http.Response, error) {
	var se *http.StatusError
	if errors.As(err, &se) {
		return se.Response, nil
	}
	return resp, err
}
