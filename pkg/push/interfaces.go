package push

import "context"

// Sender defines the contract for a component that can deliver one
// notification to one device token. Implementations perform exactly one
// request/response exchange per call (plus any explicitly configured
// transport retry) and never share connections between calls.
type Sender interface {
	// Send delivers content to a single device token. It returns an error
	// only for credential or transport failures; a gateway rejection is
	// reported through Result.OK / Result.StatusCode.
	Send(ctx context.Context, deviceToken string, content Content, opts Options) (*Result, error)
}
