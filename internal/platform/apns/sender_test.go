package apns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-apns-delivery/pkg/push"
)

// MockExchanger stands in for the HTTP/2 transport.
type MockExchanger struct {
	mock.Mock
}

func (m *MockExchanger) Exchange(ctx context.Context, host string, req *Request) (*RawResponse, error) {
	args := m.Called(ctx, host, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RawResponse), args.Error(1)
}

func newTestSender(t *testing.T, transport Exchanger, retries int) *Sender {
	t.Helper()
	signer, err := NewSigner(testIdentity())
	require.NoError(t, err)
	return &Sender{
		signer:    signer,
		compiler:  Compiler{},
		transport: transport,
		host:      EnvironmentSandbox.Host(),
		topic:     "com.tinywide.messenger",
		retries:   retries,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSend_HappyPath(t *testing.T) {
	mockTransport := new(MockExchanger)
	sender := newTestSender(t, mockTransport, 0)

	mockTransport.On("Exchange", mock.Anything, "api.sandbox.push.apple.com", mock.MatchedBy(func(req *Request) bool {
		return req.Path == "/3/device/token-1" &&
			strings.HasPrefix(req.Headers["authorization"], "bearer ") &&
			req.Headers["apns-topic"] == "com.tinywide.messenger"
	})).Return(&RawResponse{StatusCode: http.StatusOK, Headers: http.Header{}}, nil)

	res, err := sender.Send(context.Background(), "token-1", push.Content{Title: "Hi"}, push.Options{})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	mockTransport.AssertExpectations(t)
}

func TestSend_GatewayRejectionResolvesNormally(t *testing.T) {
	mockTransport := new(MockExchanger)
	sender := newTestSender(t, mockTransport, 0)

	mockTransport.On("Exchange", mock.Anything, mock.Anything, mock.Anything).
		Return(&RawResponse{
			StatusCode: http.StatusGone,
			Body:       `{"reason":"Unregistered"}`,
			Headers:    http.Header{},
		}, nil)

	res, err := sender.Send(context.Background(), "dead-token", push.Content{Title: "Hi"}, push.Options{})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, http.StatusGone, res.StatusCode)
	assert.Equal(t, map[string]any{"reason": "Unregistered"}, res.Body)
}

func TestSend_TransportFailureSingleAttemptByDefault(t *testing.T) {
	mockTransport := new(MockExchanger)
	sender := newTestSender(t, mockTransport, 0)

	cause := fmt.Errorf("%w: connection refused", ErrTransport)
	mockTransport.On("Exchange", mock.Anything, mock.Anything, mock.Anything).Return(nil, cause).Once()

	res, err := sender.Send(context.Background(), "token-1", push.Content{}, push.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Nil(t, res)
	mockTransport.AssertNumberOfCalls(t, "Exchange", 1)
}

func TestSend_OptionalTransportRetry(t *testing.T) {
	mockTransport := new(MockExchanger)
	sender := newTestSender(t, mockTransport, 1)

	var bearers []string
	captureBearer := func(args mock.Arguments) {
		req := args.Get(2).(*Request)
		bearers = append(bearers, req.Headers["authorization"])
	}
	cause := fmt.Errorf("%w: stream reset", ErrTransport)
	mockTransport.On("Exchange", mock.Anything, mock.Anything, mock.Anything).
		Run(captureBearer).Return(nil, cause).Once()
	mockTransport.On("Exchange", mock.Anything, mock.Anything, mock.Anything).
		Run(captureBearer).Return(&RawResponse{StatusCode: http.StatusOK, Headers: http.Header{}}, nil).Once()

	res, err := sender.Send(context.Background(), "token-1", push.Content{}, push.Options{})
	require.NoError(t, err)
	assert.True(t, res.OK)
	mockTransport.AssertNumberOfCalls(t, "Exchange", 2)

	// The retry is a new delivery attempt: it signs its own assertion.
	require.Len(t, bearers, 2)
	assert.NotEqual(t, bearers[0], bearers[1])
}

func TestSend_NoRetryOnRejection(t *testing.T) {
	mockTransport := new(MockExchanger)
	sender := newTestSender(t, mockTransport, 3)

	mockTransport.On("Exchange", mock.Anything, mock.Anything, mock.Anything).
		Return(&RawResponse{StatusCode: http.StatusForbidden, Body: `{"reason":"ExpiredProviderToken"}`, Headers: http.Header{}}, nil)

	res, err := sender.Send(context.Background(), "token-1", push.Content{}, push.Options{})
	require.NoError(t, err)
	assert.False(t, res.OK)
	mockTransport.AssertNumberOfCalls(t, "Exchange", 1)
}

func TestNewSender_FailsFastOnBadIdentity(t *testing.T) {
	id := testIdentity()
	id.P8KeyContent = "garbage"
	_, err := NewSender(Config{Identity: id}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestNewSender_HostFollowsEnvironment(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	id := testIdentity()
	id.Environment = EnvironmentProduction
	sender, err := NewSender(Config{Identity: id}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, "api.push.apple.com", sender.host)

	id.Environment = EnvironmentSandbox
	sender, err = NewSender(Config{Identity: id}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, "api.sandbox.push.apple.com", sender.host)
}
