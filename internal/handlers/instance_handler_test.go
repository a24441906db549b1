package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/heaterlabs/warming-engine/internal/model"
	"github.com/heaterlabs/warming-engine/internal/services"
	xhttp "github.com/heaterlabs/warming-engine/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type MockInstanceService struct {
	mock.Mock
}

func (m *MockInstanceService) Create(ctx context.Context, p model.InstanceCreateRequest) (*model.Instance, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *MockInstanceService) Get(ctx context.Context, id int64) (*model.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *MockInstanceService) List(ctx context.Context, f model.InstanceFilter) ([]*model.Instance, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Instance), args.Error(1)
}

func (m *MockInstanceService) QRCode(ctx context.Context, id int64) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *MockInstanceService) StartWarming(ctx context.Context, id int64) (*model.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *MockInstanceService) StopWarming(ctx context.Context, id int64) (*model.Instance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *MockInstanceService) UpdateLimits(ctx context.Context, id int64, p model.InstanceLimitsRequest) (*model.Instance, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Instance), args.Error(1)
}

func (m *MockInstanceService) Sessions(ctx context.Context, id int64) ([]*model.WarmingSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.WarmingSession), args.Error(1)
}

func (m *MockInstanceService) Messages(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Message), args.Get(1).(int64), args.Error(2)
}

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

func TestInstanceHandler_CreateInstance(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		bodyBytes, _ := json.Marshal(createInstanceRequest{Name: "warm-01", PhoneNumber: "5511988880001"})

		svc.On("Create", mock.Anything, mock.MatchedBy(func(p model.InstanceCreateRequest) bool {
			return p.Name == "warm-01" && p.PhoneNumber == "5511988880001"
		})).Return(&model.Instance{ID: 1, Name: "warm-01"}, nil)

		ctx := setupTestContext("POST", "/instances", bodyBytes)
		handler.CreateInstance(ctx)

		assert.Equal(t, 201, ctx.Response.StatusCode())

		var got model.Instance
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &got))
		assert.Equal(t, int64(1), got.ID)

		svc.AssertExpectations(t)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		ctx := setupTestContext("POST", "/instances", []byte("{not json"))
		handler.CreateInstance(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestInstanceHandler_GetInstance(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		svc.On("Get", mock.Anything, int64(5)).Return(&model.Instance{ID: 5, Name: "warm-05"}, nil)

		ctx := setupTestContext("GET", "/instances/5", nil)
		ctx.SetUserValue("id", "5")
		handler.GetInstance(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		svc.On("Get", mock.Anything, int64(9)).Return(nil, services.ErrNotFound)

		ctx := setupTestContext("GET", "/instances/9", nil)
		ctx.SetUserValue("id", "9")
		handler.GetInstance(ctx)

		assert.Equal(t, 404, ctx.Response.StatusCode())
	})

	t.Run("bad id", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		ctx := setupTestContext("GET", "/instances/abc", nil)
		ctx.SetUserValue("id", "abc")
		handler.GetInstance(ctx)

		assert.Equal(t, 400, ctx.Response.StatusCode())
	})
}

func TestInstanceHandler_Warming(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		svc.On("StartWarming", mock.Anything, int64(1)).
			Return(&model.Instance{ID: 1, WarmingEnabled: true}, nil)

		ctx := setupTestContext("POST", "/instances/1/warming/start", nil)
		ctx.SetUserValue("id", "1")
		handler.StartWarming(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})

	t.Run("start rejected when disconnected", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		svc.On("StartWarming", mock.Anything, int64(1)).Return(nil, services.ErrNotConnected)

		ctx := setupTestContext("POST", "/instances/1/warming/start", nil)
		ctx.SetUserValue("id", "1")
		handler.StartWarming(ctx)

		assert.Equal(t, 409, ctx.Response.StatusCode())
	})

	t.Run("stop", func(t *testing.T) {
		svc := new(MockInstanceService)
		handler := NewInstanceHandler(svc)

		svc.On("StopWarming", mock.Anything, int64(1)).
			Return(&model.Instance{ID: 1}, nil)

		ctx := setupTestContext("POST", "/instances/1/warming/stop", nil)
		ctx.SetUserValue("id", "1")
		handler.StopWarming(ctx)

		assert.Equal(t, 200, ctx.Response.StatusCode())
	})
}

func TestInstanceHandler_UpdateLimits(t *testing.T) {
	svc := new(MockInstanceService)
	handler := NewInstanceHandler(svc)

	limit := 20
	bodyBytes, _ := json.Marshal(updateLimitsRequest{DailyLimit: &limit})

	svc.On("UpdateLimits", mock.Anything, int64(1), mock.MatchedBy(func(p model.InstanceLimitsRequest) bool {
		return p.DailyLimit != nil && *p.DailyLimit == 20
	})).Return(&model.Instance{ID: 1, DailyLimit: 20}, nil)

	ctx := setupTestContext("PUT", "/instances/1/limits", bodyBytes)
	ctx.SetUserValue("id", "1")
	handler.UpdateLimits(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())
	svc.AssertExpectations(t)
}

func TestInstanceHandler_ListMessages(t *testing.T) {
	svc := new(MockInstanceService)
	handler := NewInstanceHandler(svc)

	svc.On("Messages", mock.Anything, mock.MatchedBy(func(f model.MessageFilter) bool {
		return f.InstanceID != nil && *f.InstanceID == 1 && f.Limit == 10 && f.Desc
	})).Return([]*model.Message{
		{ID: 1, InstanceID: 1, Kind: model.MessageKindText},
	}, int64(1), nil)

	ctx := setupTestContext("GET", "/messages?instance_id=1&limit=10&order=desc", nil)
	handler.ListMessages(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var resp messageListResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	assert.Len(t, resp.Items, 1)
}

func TestInstanceHandler_GetQRCode(t *testing.T) {
	svc := new(MockInstanceService)
	handler := NewInstanceHandler(svc)

	svc.On("QRCode", mock.Anything, int64(1)).Return("data:image/png;base64,abc", nil)

	ctx := setupTestContext("GET", "/instances/1/qrcode", nil)
	ctx.SetUserValue("id", "1")
	handler.GetQRCode(ctx)

	assert.Equal(t, 200, ctx.Response.StatusCode())

	var resp qrcodeResponse
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &resp))
	assert.Contains(t, resp.QRCode, "base64")
}
