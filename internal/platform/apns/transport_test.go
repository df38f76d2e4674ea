package apns

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newGateway starts a local HTTP/2 TLS server standing in for APNS and
// returns its host plus a transport that trusts its certificate.
func newGateway(t *testing.T, handler http.HandlerFunc) (string, *Transport) {
	t.Helper()
	srv := httptest.NewUnstartedServer(handler)
	srv.EnableHTTP2 = true
	srv.StartTLS()
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	host := strings.TrimPrefix(srv.URL, "https://")
	return host, &Transport{TLSConfig: &tls.Config{RootCAs: pool}}
}

func TestExchange_SendsCompiledRequest(t *testing.T) {
	var (
		gotProto   string
		gotMethod  string
		gotPath    string
		gotHeaders http.Header
		gotBody    []byte
	)
	host, transport := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotProto = r.Proto
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("apns-id", "srv-generated")
		w.WriteHeader(http.StatusOK)
	})

	req := &Request{
		Path: "/3/device/abc123",
		Headers: map[string]string{
			"authorization":  "bearer jwt",
			"apns-topic":     "com.test.app",
			"apns-push-type": "alert",
			"apns-priority":  "10",
		},
		Body: []byte(`{"aps":{}}`),
	}

	raw, err := transport.Exchange(context.Background(), host, req)
	require.NoError(t, err)

	assert.Equal(t, "HTTP/2.0", gotProto)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/3/device/abc123", gotPath)
	assert.Equal(t, "bearer jwt", gotHeaders.Get("authorization"))
	assert.Equal(t, "com.test.app", gotHeaders.Get("apns-topic"))
	assert.Equal(t, "alert", gotHeaders.Get("apns-push-type"))
	assert.Equal(t, "10", gotHeaders.Get("apns-priority"))
	assert.JSONEq(t, `{"aps":{}}`, string(gotBody))

	assert.Equal(t, http.StatusOK, raw.StatusCode)
	assert.Equal(t, "", raw.Body)
	assert.Equal(t, "srv-generated", raw.Headers.Get("apns-id"))
}

func TestExchange_GatewayRejectionIsDataNotError(t *testing.T) {
	host, transport := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"reason":"BadDeviceToken"}`))
	})

	raw, err := transport.Exchange(context.Background(), host, &Request{Path: "/3/device/x", Headers: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
	assert.JSONEq(t, `{"reason":"BadDeviceToken"}`, raw.Body)
}

func TestExchange_ConnectionRefused(t *testing.T) {
	transport := &Transport{Timeout: 2 * time.Second}
	raw, err := transport.Exchange(context.Background(), "127.0.0.1:1", &Request{Path: "/3/device/x", Headers: map[string]string{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	// Never resolves with a fabricated status.
	assert.Nil(t, raw)
}

func TestExchange_TimeoutBoundsTheWait(t *testing.T) {
	host, transport := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})
	transport.Timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := transport.Exchange(context.Background(), host, &Request{Path: "/3/device/x", Headers: map[string]string{}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Less(t, time.Since(start), 3*time.Second)
}
