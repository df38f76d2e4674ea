package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tinywideclouds/go-apns-delivery/pkg/push"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
)

// SendAPI is the thin HTTP layer over the push sender. It only shapes
// requests and responses; delivery semantics live in the sender.
type SendAPI struct {
	Sender push.Sender
	Logger *slog.Logger
}

func NewSendAPI(sender push.Sender, logger *slog.Logger) *SendAPI {
	return &SendAPI{
		Sender: sender,
		Logger: logger,
	}
}

type SendRequest struct {
	Token      string         `json:"token"`
	Title      string         `json:"title,omitempty"`
	Body       string         `json:"body,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	PushType   push.PushType  `json:"push_type,omitempty"`
	Priority   int            `json:"priority,omitempty"`
	CollapseID string         `json:"collapse_id,omitempty"`
}

// SendResponse mirrors the normalized delivery result. A gateway rejection
// is reported here with ok=false so the caller can branch on the status
// (e.g. drop the token on 410) without error-handling overhead.
type SendResponse struct {
	OK      bool `json:"ok"`
	Status  int  `json:"status"`
	Gateway any  `json:"gateway"`
}

func (api *SendAPI) SendHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Token == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing token")
		return
	}

	content := push.Content{Title: req.Title, Body: req.Body, Data: req.Data}
	opts := push.Options{PushType: req.PushType, Priority: req.Priority, CollapseID: req.CollapseID}

	result, err := api.Sender.Send(ctx, req.Token, content, opts)
	if err != nil {
		// Credential or transport failure. The gateway never saw (or never
		// finished) this exchange, so there is no status to report.
		api.Logger.Error("push send failed", "err", err)
		response.WriteJSONError(w, http.StatusBadGateway, "push delivery failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(SendResponse{
		OK:      result.OK,
		Status:  result.StatusCode,
		Gateway: result.Body,
	})
}
