package client

import (
	"wirehttp/application/http"
	"wirehttp/application/http/status"
	"wirehttp/application/util/uri"
)

// nextRequest decides how to follow resp to request.
// ok is false when resp is final: not a redirect, or one without Location.
func nextRequest(request *http.Request, resp *http.Response) (_ *http.Request, ok bool, _ error) {
	if !status.IsRedirect(resp.StatusCode) {
		return nil, false, nil
	}

	location, ok := resp.Header("Location")
	if !ok || location == "" {
		return nil, false, nil
	}

	u, err := uri.Resolve(request.URL, location)
	if err != nil {
		return nil, false, http.URLError(location, err)
	}

	next := &http.Request{
		Method:  request.Method,
		URL:     u,
		Headers: request.Headers.Clone(),
		Payload: request.Payload,
	}

	// Credentials are not for whoever the server points at.
	next.Headers.Del("Authorization")
	next.Headers.Del("Content-Length")
	if u.Host() != request.URL.Host() {
		next.Headers.Del("Host")
	}

	switch resp.StatusCode {
	case status.MovedPermanently.Code, status.Found.Code, status.SeeOther.Code:
		if next.Method != http.MethodGet && next.Method != http.MethodHead {
			next.Method = http.MethodGet
		}
		next.Payload = nil
		next.Headers.Del("Content-Type")
		next.Headers.Del("Transfer-Encoding")

	default:
		// 307 and 308 repeat the request as is.
		if next.Payload != nil && !next.Payload.Replayable() {
			e := http.NewError(http.KindBodyNotReplayable,
				"redirect "+resp.URL.String()+" -> "+u.String()+" needs the request body again")
			return nil, false, e
		}
	}

	return next, true, nil
}
