package apns

import (
	"encoding/json"
	"net/http"

	"github.com/tinywideclouds/go-apns-delivery/pkg/push"
)

// Normalize maps a raw gateway exchange into the caller-facing result.
// 200 is the sole success status; everything else is reported as a non-ok
// result carrying the gateway's status and body verbatim, so the caller can
// branch on status alone (e.g. deactivate a token on 410). A body that is
// not valid JSON is kept as its raw text rather than failing the call.
func Normalize(raw *RawResponse) *push.Result {
	var body any = raw.Body
	if raw.Body != "" {
		var decoded any
		if err := json.Unmarshal([]byte(raw.Body), &decoded); err == nil {
			body = decoded
		}
	}
	return &push.Result{
		OK:         raw.StatusCode == http.StatusOK,
		StatusCode: raw.StatusCode,
		Body:       body,
		Headers:    raw.Headers,
	}
}
