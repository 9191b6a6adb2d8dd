package client

import (
	"time"

	"wirehttp/application/http"
	"wirehttp/transport"
)

type Options struct {
	Send     SendOptions
	Receive  ReceiveOptions
	Timeout  TimeoutOptions
	Redirect RedirectOptions

	// TLS decides which servers are trusted over https.
	// nil means the system roots.
	TLS *transport.TrustConfig
}

type SendOptions struct {
	Encode http.EncodeOptions
}

type ReceiveOptions struct {
	Decode http.DecodeOptions
}

type TimeoutOptions struct {
	// Connect bounds resolving, connecting and the TLS handshake of each
	// exchange. Zero means no limit.
	Connect time.Duration
	// Overall bounds a whole Do call, redirects included, up to the end of
	// the response head. Body reads share the same deadline.
	// Zero means no limit.
	Overall time.Duration
}

type RedirectOptions struct {
	// Max is the number of redirects followed before giving up.
	// Zero disables following, so 3xx responses are returned as is.
	Max uint
}

var DefaultOptions = Options{
	Send:     SendOptions{Encode: http.DefaultEncodeOptions},
	Receive:  ReceiveOptions{Decode: http.DefaultDecodeOptions},
	Redirect: RedirectOptions{Max: 5},
}
