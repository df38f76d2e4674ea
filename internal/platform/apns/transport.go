package apns

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// DefaultTimeout bounds the whole exchange (dial, request, response stream)
// so a hung gateway never stalls a caller indefinitely.
const DefaultTimeout = 30 * time.Second

// RawResponse is the unprocessed outcome of one completed exchange. A
// non-200 status still produces a RawResponse; only connection or stream
// failures produce an error instead.
type RawResponse struct {
	StatusCode int
	Body       string
	Headers    http.Header
}

// Transport performs a single HTTP/2 request/response exchange per call.
// Every call dials its own connection and tears it down before returning,
// on every exit path. Connections are never pooled or kept warm, and no
// state is shared between concurrent calls.
type Transport struct {
	// Timeout per exchange; zero means DefaultTimeout.
	Timeout time.Duration
	// TLSConfig overrides the client TLS settings (used by tests to trust
	// a local certificate). Nil means system roots.
	TLSConfig *tls.Config
}

// Exchange POSTs the compiled request to the host and accumulates the
// response stream to completion. Errors wrap ErrTransport.
func (t *Transport) Exchange(ctx context.Context, host string, req *Request) (*RawResponse, error) {
	h2 := &http2.Transport{TLSClientConfig: t.TLSConfig}
	// Releases the connection this exchange dialed, on every branch.
	defer h2.CloseIdleConnections()

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://"+host+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("content-type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := h2.RoundTrip(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response stream: %v", ErrTransport, err)
	}

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Headers:    resp.Header,
	}, nil
}
