package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/internal/services"
	xhttp "github.com/heaterlabs/warming-engine/pkg/http"
)

type InstanceService interface {
	Create(ctx context.Context, p model.InstanceCreateRequest) (*model.Instance, error)
	Get(ctx context.Context, id int64) (*model.Instance, error)
	List(ctx context.Context, f model.InstanceFilter) ([]*model.Instance, error)
	QRCode(ctx context.Context, id int64) (string, error)
	StartWarming(ctx context.Context, id int64) (*model.Instance, error)
	StopWarming(ctx context.Context, id int64) (*model.Instance, error)
	UpdateLimits(ctx context.Context, id int64, p model.InstanceLimitsRequest) (*model.Instance, error)
	Sessions(ctx context.Context, id int64) ([]*model.WarmingSession, error)
	Messages(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error)
}

type InstanceHandler struct {
	svc InstanceService
}

func RegisterInstanceRoutes(e *router.Group, h *InstanceHandler) {
	e.POST("/instances", h.CreateInstance)
	e.GET("/instances", h.ListInstances)
	e.GET("/instances/{id}", h.GetInstance)
	e.GET("/instances/{id}/qrcode", h.GetQRCode)
	e.POST("/instances/{id}/warming/start", h.StartWarming)
	e.POST("/instances/{id}/warming/stop", h.StopWarming)
	e.PUT("/instances/{id}/limits", h.UpdateLimits)
	e.GET("/instances/{id}/sessions", h.ListSessions)
	e.GET("/messages", h.ListMessages)
}

func NewInstanceHandler(svc InstanceService) *InstanceHandler {
	return &InstanceHandler{svc: svc}
}

type createInstanceRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type updateLimitsRequest struct {
	DailyLimit      *int    `json:"daily_limit"`
	PrivateDelayMin *int    `json:"private_delay_min"`
	PrivateDelayMax *int    `json:"private_delay_max"`
	ScheduleStart   *string `json:"schedule_start"`
	ScheduleEnd     *string `json:"schedule_end"`
}

type instanceListResponse struct {
	Items []*model.Instance `json:"items"`
}

type sessionListResponse struct {
	Items []*model.WarmingSession `json:"items"`
}

type messageListResponse struct {
	Items []*model.Message `json:"items"`
	Total int64            `json:"total"`
}

type qrcodeResponse struct {
	QRCode string `json:"qrcode"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *InstanceHandler) CreateInstance(ctx *xhttp.RequestCtx) {
	var req createInstanceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	inst, err := h.svc.Create(ctx, model.InstanceCreateRequest{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, inst)
}

func (h *InstanceHandler) ListInstances(ctx *xhttp.RequestCtx) {
	var f model.InstanceFilter

	if v := query(ctx, "warming"); v != "" {
		enabled := strings.EqualFold(v, "true") || v == "1"
		f.WarmingEnabled = &enabled
	}
	if v := query(ctx, "status"); v != "" {
		status := model.InstanceStatus(v)
		f.Status = &status
	}

	items, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, instanceListResponse{Items: items})
}

func (h *InstanceHandler) GetInstance(ctx *xhttp.RequestCtx) {
	id, err := routeInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid instance id")
		return
	}

	inst, err := h.svc.Get(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, inst)
}

func (h *InstanceHandler) GetQRCode(ctx *xhttp.RequestCtx) {
	id, err := routeInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid instance id")
		return
	}

	code, err := h.svc.QRCode(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, qrcodeResponse{QRCode: code})
}

func (h *InstanceHandler) StartWarming(ctx *xhttp.RequestCtx) {
	id, err := routeInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid instance id")
		return
	}

	inst, err := h.svc.StartWarming(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, inst)
}

func (h *InstanceHandler) StopWarming(ctx *xhttp.RequestCtx) {
	id, err := routeInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid instance id")
		return
	}

	inst, err := h.svc.StopWarming(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, inst)
}

func (h *InstanceHandler) UpdateLimits(ctx *xhttp.RequestCtx) {
	id, err := routeInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid instance id")
		return
	}

	var req updateLimitsRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}

	inst, err := h.svc.UpdateLimits(ctx, id, model.InstanceLimitsRequest{
		DailyLimit:      req.DailyLimit,
		PrivateDelayMin: req.PrivateDelayMin,
		PrivateDelayMax: req.PrivateDelayMax,
		ScheduleStart:   req.ScheduleStart,
		ScheduleEnd:     req.ScheduleEnd,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, inst)
}

func (h *InstanceHandler) ListSessions(ctx *xhttp.RequestCtx) {
	id, err := routeInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid instance id")
		return
	}

	items, err := h.svc.Sessions(ctx, id)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, 200, sessionListResponse{Items: items})
}

func (h *InstanceHandler) ListMessages(ctx *xhttp.RequestCtx) {
	var f model.MessageFilter

	if v := query(ctx, "instance_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.InstanceID = &id
		}
	}
	if v := query(ctx, "peer"); v != "" {
		f.PeerNumber = &v
	}
	if v := query(ctx, "kind"); v != "" {
		kind := model.MessageKind(v)
		f.Kind = &kind
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.Messages(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, messageListResponse{Items: items, Total: total})
}

/* --------------------------------- Helpers ----------------------------------- */

func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, services.ErrNotConnected),
		errors.Is(err, services.ErrAlreadyWarming),
		errors.Is(err, services.ErrWarmingNotActive):
		writeError(ctx, 409, err.Error())
	default:
		writeError(ctx, 400, err.Error())
	}
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func routeInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// Accept RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
