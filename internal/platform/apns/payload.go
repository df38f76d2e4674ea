package apns

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tinywideclouds/go-apns-delivery/pkg/push"
)

// Request is the compiled wire material for exactly one send: the request
// path, the full apns-* header set, and the JSON body.
type Request struct {
	Path    string
	Headers map[string]string
	Body    []byte
}

// Compiler turns a delivery intent into the gateway JSON payload and header
// set. It is a pure function of its inputs.
type Compiler struct {
	// OmitEmptyAlertKeys controls what an alert looks like when title or
	// body are absent. False (the default) always includes both keys, as
	// empty strings when unset. True omits an absent key and drops the
	// alert object entirely when both are absent.
	OmitEmptyAlertKeys bool
}

// Compile builds the request for one device token. The token is
// interpolated into the path with no extra encoding; a malformed token is
// the gateway's to reject. Priority overrides from the caller are passed
// through verbatim.
func (c Compiler) Compile(deviceToken, bearer, topic string, content push.Content, opts push.Options) (*Request, error) {
	pushType := opts.PushType
	if pushType == "" {
		pushType = push.PushTypeAlert
	}

	body, err := c.buildBody(pushType, content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	priority := opts.Priority
	if priority == 0 {
		if pushType == push.PushTypeBackground {
			priority = push.PriorityPowerConserving
		} else {
			priority = push.PriorityImmediate
		}
	}

	headers := map[string]string{
		"authorization":  "bearer " + bearer,
		"apns-topic":     topic,
		"apns-push-type": string(pushType),
		"apns-priority":  strconv.Itoa(priority),
		"apns-id":        uuid.NewString(),
	}
	if opts.CollapseID != "" {
		headers["apns-collapse-id"] = opts.CollapseID
	}

	return &Request{
		Path:    "/3/device/" + deviceToken,
		Headers: headers,
		Body:    body,
	}, nil
}

// buildBody assembles the payload for the intent. The two aps shapes are
// mutually exclusive: an alert push carries alert+sound and nothing else; a
// background push carries content-available and nothing else. The custom
// data blob, when present, sits at the top level next to aps, never inside.
func (c Compiler) buildBody(pushType push.PushType, content push.Content) ([]byte, error) {
	var aps map[string]any
	if pushType == push.PushTypeBackground {
		aps = map[string]any{"content-available": 1}
	} else {
		aps = map[string]any{
			"alert": c.buildAlert(content),
			"sound": "default",
		}
		if c.OmitEmptyAlertKeys && content.Title == "" && content.Body == "" {
			delete(aps, "alert")
		}
	}

	payload := map[string]any{"aps": aps}
	if content.Data != nil {
		payload["data"] = content.Data
	}
	return json.Marshal(payload)
}

func (c Compiler) buildAlert(content push.Content) map[string]any {
	if !c.OmitEmptyAlertKeys {
		return map[string]any{
			"title": content.Title,
			"body":  content.Body,
		}
	}
	alert := map[string]any{}
	if content.Title != "" {
		alert["title"] = content.Title
	}
	if content.Body != "" {
		alert["body"] = content.Body
	}
	return alert
}
