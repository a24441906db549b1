package handlers

import (
	"context"

	"github.com/fasthttp/router"
	"github.com/heaterlabs/warming-engine/internal/model"
	xhttp "github.com/heaterlabs/warming-engine/pkg/http"
	"github.com/heaterlabs/warming-engine/pkg/logger"
)

// StatusPublisher is the queue surface the webhook writes to.
type StatusPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// WebhookHandler accepts gateway event callbacks. Events are pushed
// onto the status queue and applied asynchronously, so the gateway
// always gets a fast 200 and redeliveries stay cheap.
type WebhookHandler struct {
	publisher StatusPublisher
}

func RegisterWebhookRoutes(e *router.Group, h *WebhookHandler) {
	e.POST("/evolution", h.HandleEvent)
}

func NewWebhookHandler(publisher StatusPublisher) *WebhookHandler {
	return &WebhookHandler{publisher: publisher}
}

type gatewayEvent struct {
	Event    string `json:"event"`
	Instance string `json:"instance"`
	Data     struct {
		State string `json:"state"`
	} `json:"data"`
}

func (h *WebhookHandler) HandleEvent(ctx *xhttp.RequestCtx) {
	var event gatewayEvent
	if err := readJSON(ctx, &event); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	if event.Event != "connection.update" {
		// Other gateway events are not consumed here.
		writeJSON(ctx, 200, map[string]string{"status": "ignored"})
		return
	}

	status, ok := model.NormalizeGatewayState(event.Data.State)
	if !ok {
		logger.Debug("ignoring unknown connection state", "instance", event.Instance, "state", event.Data.State)
		writeJSON(ctx, 200, map[string]string{"status": "ignored"})
		return
	}

	update := model.StatusUpdate{
		InstanceName: event.Instance,
		Status:       status,
	}
	if _, err := h.publisher.PublishJSON(ctx, update, nil); err != nil {
		logger.Error("failed to enqueue status update", "instance", event.Instance, "error", err)
		writeError(ctx, 500, "failed to enqueue status update")
		return
	}

	writeJSON(ctx, 200, map[string]string{"status": "accepted"})
}
