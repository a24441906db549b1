package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/heaterlabs/warming-engine/pkg/logger"
	"github.com/valyala/fasthttp"
)

var (
	ErrMissingBaseURL = errors.New("gateway base url is required")
)

// PresenceState is the chat presence signal shown to the peer.
type PresenceState string

const (
	PresenceComposing   PresenceState = "composing"
	PresenceRecording   PresenceState = "recording"
	PresenceAvailable   PresenceState = "available"
	PresenceUnavailable PresenceState = "unavailable"
)

// ReactionKey identifies the message a reaction targets on the wire.
type ReactionKey struct {
	RemoteJid string `json:"remoteJid"`
	FromMe    bool   `json:"fromMe"`
	ID        string `json:"id"`
}

type Config struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	MaxConns        int
	ReadBufferSize  int
	WriteBufferSize int
}

// Client talks to an Evolution-style gateway over HTTP. Every call is
// a remote operation that may fail; callers must never assume
// success.
type Client struct {
	config *Config
	client *fasthttp.Client
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	httpClient := &fasthttp.Client{
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
		ReadBufferSize:      config.ReadBufferSize,
		WriteBufferSize:     config.WriteBufferSize,
	}

	logger.Info("Gateway client initialized", "base_url", config.BaseURL, "timeout", config.Timeout)

	return &Client{
		config: config,
		client: httpClient,
	}, nil
}

// CreateInstance registers a new instance on the gateway and requests
// a QR code pairing flow.
func (c *Client) CreateInstance(ctx context.Context, name string) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"instanceName": name,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}
	response, err := c.doRequest(ctx, "POST", "/instance/create", body)
	if err != nil {
		return nil, err
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(response, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp, nil
}

// GetQRCode fetches the pairing QR code for an instance. Returns an
// empty string when the gateway has none to offer.
func (c *Client) GetQRCode(ctx context.Context, instance string) (string, error) {
	response, err := c.doRequest(ctx, "GET", "/instance/connect/"+instance, nil)
	if err != nil {
		return "", err
	}

	var resp struct {
		QRCode struct {
			Base64 string `json:"base64"`
		} `json:"qrcode"`
	}
	if err := json.Unmarshal(response, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp.QRCode.Base64, nil
}

// SendText dispatches a text message and returns the raw gateway
// response. The external message id, if any, is extracted by the
// caller via ExtractMessageID.
func (c *Client) SendText(ctx context.Context, instance, number, text string) ([]byte, error) {
	body := map[string]interface{}{
		"number": number,
		"text":   text,
	}
	return c.doRequest(ctx, "POST", "/message/sendText/"+instance, body)
}

// SendAudio dispatches a voice note (PTT) referencing a hosted clip.
func (c *Client) SendAudio(ctx context.Context, instance, number, audioRef string) ([]byte, error) {
	body := map[string]interface{}{
		"number":   number,
		"audio":    audioRef,
		"encoding": true,
	}
	return c.doRequest(ctx, "POST", "/message/sendWhatsAppAudio/"+instance, body)
}

// SendReaction reacts to the message identified by key with the given
// emoji.
func (c *Client) SendReaction(ctx context.Context, instance string, key ReactionKey, emoji string) ([]byte, error) {
	body := map[string]interface{}{
		"key":      key,
		"reaction": emoji,
	}
	return c.doRequest(ctx, "POST", "/message/sendReaction/"+instance, body)
}

// SetPresence updates the chat presence of an instance.
func (c *Client) SetPresence(ctx context.Context, instance string, presence PresenceState) error {
	body := map[string]interface{}{
		"presence": string(presence),
	}
	_, err := c.doRequest(ctx, "POST", "/chat/updatePresence/"+instance, body)
	return err
}

// TrySetPresence attempts a presence update and swallows the error.
// Presence is a non-critical UX signal; a failed update must never
// abort the warming activity that triggered it.
func (c *Client) TrySetPresence(ctx context.Context, instance string, presence PresenceState) {
	if err := c.SetPresence(ctx, instance, presence); err != nil {
		logger.Debug("presence update failed", "instance", instance, "presence", string(presence), "error", err)
	}
}

// doRequest performs an HTTP request bounded by the context deadline
// or the configured timeout.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if c.config.APIKey != "" {
		req.Header.Set("apikey", c.config.APIKey)
	}

	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		req.SetBody(reqBody)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode < fasthttp.StatusOK || statusCode >= fasthttp.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())

	return result, nil
}
