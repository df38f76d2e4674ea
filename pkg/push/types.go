// Package push contains the public domain types and interfaces for the
// APNS delivery service.
package push

import "net/http"

// PushType selects the delivery intent of a notification.
type PushType string

const (
	// PushTypeAlert is a user-visible notification (banner, sound).
	PushTypeAlert PushType = "alert"
	// PushTypeBackground is a silent wake-up; the device decides when to
	// deliver it.
	PushTypeBackground PushType = "background"
)

// Gateway-recognized priority values. APNS only understands these two.
const (
	PriorityImmediate       = 10
	PriorityPowerConserving = 5
)

// Content is the application-level notification content.
// Title and Body only apply to alert pushes; Data is merged into the top
// level of the wire payload for both intents.
type Content struct {
	Title string         `json:"title,omitempty"`
	Body  string         `json:"body,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// Options carries per-send delivery options.
type Options struct {
	// PushType defaults to PushTypeAlert when empty.
	PushType PushType `json:"push_type,omitempty"`
	// Priority is passed through verbatim when non-zero; otherwise it
	// defaults per intent (10 for alert, 5 for background).
	Priority int `json:"priority,omitempty"`
	// CollapseID groups pending notifications on the device; the header is
	// only sent when non-empty.
	CollapseID string `json:"collapse_id,omitempty"`
}

// Result is the outcome of a single completed exchange with the gateway.
// A non-200 status is a data outcome, not an error: the caller branches on
// StatusCode/Body to distinguish a dead token (400/410) from an auth
// failure (403) from a gateway outage (5xx).
type Result struct {
	// OK is true only for HTTP 200.
	OK bool `json:"ok"`
	// StatusCode is the gateway's HTTP status, verbatim.
	StatusCode int `json:"status"`
	// Body is the gateway's response body: decoded JSON when the body is
	// valid JSON, the raw text otherwise, "" when empty.
	Body any `json:"gateway"`
	// Headers are the gateway's response headers (includes apns-id).
	Headers http.Header `json:"-"`
}
