// Package apns implements the delivery path to the Apple Push Notification
// service: bearer-token signing, payload compilation, the per-send HTTP/2
// exchange and response normalization.
package apns

import (
	"fmt"
	"strings"
)

// Environment selects which APNS host receives the sends. The two hosts are
// never mixed at runtime; the choice is fixed when the sender is built.
type Environment string

const (
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentProduction Environment = "production"
)

const (
	sandboxHost    = "api.sandbox.push.apple.com"
	productionHost = "api.push.apple.com"
)

// Host returns the gateway host for the environment.
func (e Environment) Host() string {
	if e == EnvironmentSandbox {
		return sandboxHost
	}
	return productionHost
}

// Identity is the process-wide sender identity. It is loaded once at startup
// and never mutated; a bad identity is a fatal configuration error, not a
// per-send error.
type Identity struct {
	TeamID      string
	KeyID       string
	BundleID    string
	Environment Environment
	// P8KeyContent is the raw string content of the .p8 signing key file.
	P8KeyContent string
}

// Validate reports the first missing or malformed field. It only checks
// structure; the key material itself is parsed by NewSigner.
func (id Identity) Validate() error {
	switch {
	case id.TeamID == "":
		return fmt.Errorf("apns identity: team_id is required")
	case id.KeyID == "":
		return fmt.Errorf("apns identity: key_id is required")
	case id.BundleID == "":
		return fmt.Errorf("apns identity: bundle_id is required")
	case id.Environment != EnvironmentSandbox && id.Environment != EnvironmentProduction:
		return fmt.Errorf("apns identity: environment must be %q or %q, got %q",
			EnvironmentSandbox, EnvironmentProduction, id.Environment)
	case !strings.Contains(id.P8KeyContent, "PRIVATE KEY"):
		return fmt.Errorf("apns identity: key material is not a private-key PEM block")
	}
	return nil
}
