package apns

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tinywideclouds/go-apns-delivery/internal/metrics"
	"github.com/tinywideclouds/go-apns-delivery/pkg/push"
)

// Exchanger is the subset of the transport the sender uses. It allows
// mocking for unit tests.
type Exchanger interface {
	Exchange(ctx context.Context, host string, req *Request) (*RawResponse, error)
}

// Config holds the sender identity and tuning knobs.
type Config struct {
	Identity Identity
	// OmitEmptyAlertKeys selects the alert-body strictness (see Compiler).
	OmitEmptyAlertKeys bool
	// Timeout per exchange; zero means DefaultTimeout.
	Timeout time.Duration
	// TransportRetries is the number of extra attempts allowed after a
	// transport-level failure. The gateway exchange itself is never
	// retried on a rejection. Zero (the default) means one attempt only.
	TransportRetries int
}

// Sender is the single entry point for delivering one notification to one
// device token. Concurrent sends share nothing mutable: each call signs its
// own bearer, builds its own payload and dials its own connection.
type Sender struct {
	signer    *Signer
	compiler  Compiler
	transport Exchanger
	host      string
	topic     string
	retries   int
	logger    *slog.Logger
	metrics   *metrics.Delivery
}

var _ push.Sender = (*Sender)(nil)

// NewSender validates the identity and parses the signing key immediately
// to fail fast on startup if credentials are bad.
func NewSender(cfg Config, m *metrics.Delivery, logger *slog.Logger) (*Sender, error) {
	signer, err := NewSigner(cfg.Identity)
	if err != nil {
		return nil, err
	}
	return &Sender{
		signer:    signer,
		compiler:  Compiler{OmitEmptyAlertKeys: cfg.OmitEmptyAlertKeys},
		transport: &Transport{Timeout: cfg.Timeout},
		host:      cfg.Identity.Environment.Host(),
		topic:     cfg.Identity.BundleID,
		retries:   cfg.TransportRetries,
		logger:    logger.With("component", "APNSSender"),
		metrics:   m,
	}, nil
}

// Send performs sign -> compile -> exchange -> normalize for one token.
// It returns an error only for credential or transport failures; the
// gateway saying no is a normal result with OK=false.
func (s *Sender) Send(ctx context.Context, deviceToken string, content push.Content, opts push.Options) (*push.Result, error) {
	start := time.Now()

	raw, err := s.attempt(ctx, deviceToken, content, opts)
	for try := 0; try < s.retries && errors.Is(err, ErrTransport); try++ {
		s.logger.Warn("APNs transport failed, retrying", "token", deviceToken, "attempt", try+1, "err", err)
		s.metrics.IncRetried()
		if sleepErr := sleepWithJitter(ctx, retryDelay); sleepErr != nil {
			break
		}
		raw, err = s.attempt(ctx, deviceToken, content, opts)
	}

	if err != nil {
		outcome := metrics.OutcomeTransportError
		if errors.Is(err, ErrCredential) {
			outcome = metrics.OutcomeCredentialError
			s.logger.Error("APNs token signing failed", "err", err)
		} else {
			s.logger.Error("APNs exchange failed", "token", deviceToken, "err", err)
		}
		s.metrics.Observe(outcome, time.Since(start))
		return nil, err
	}

	result := Normalize(raw)
	if result.OK {
		s.metrics.Observe(metrics.OutcomeDelivered, time.Since(start))
		s.logger.Debug("APNs delivered", "token", deviceToken, "apns_id", raw.Headers.Get("apns-id"))
	} else {
		s.metrics.Observe(metrics.OutcomeRejected, time.Since(start))
		s.logger.Warn("APNs rejected notification", "token", deviceToken, "status", result.StatusCode, "body", raw.Body)
	}
	return result, nil
}

// attempt is one full delivery attempt. The bearer is signed fresh here so
// a retry never reuses the previous attempt's assertion.
func (s *Sender) attempt(ctx context.Context, deviceToken string, content push.Content, opts push.Options) (*RawResponse, error) {
	bearer, err := s.signer.Bearer()
	if err != nil {
		return nil, err
	}
	req, err := s.compiler.Compile(deviceToken, bearer, s.topic, content, opts)
	if err != nil {
		return nil, err
	}
	return s.transport.Exchange(ctx, s.host, req)
}

const retryDelay = 500 * time.Millisecond

func sleepWithJitter(ctx context.Context, d time.Duration) error {
	jitter := time.Duration(rand.Int63n(int64(d) / 2))
	timer := time.NewTimer(d + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
