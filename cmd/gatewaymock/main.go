package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ConnectionState mirrors the gateway's connection.update states.
type ConnectionState string

const (
	StateOpen       ConnectionState = "open"
	StateClose      ConnectionState = "close"
	StateConnecting ConnectionState = "connecting"
)

type CreateInstanceRequest struct {
	InstanceName string `json:"instanceName" binding:"required"`
	QRCode       bool   `json:"qrcode"`
	Integration  string `json:"integration"`
}

type SendTextRequest struct {
	Number string `json:"number" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type SendAudioRequest struct {
	Number   string `json:"number" binding:"required"`
	Audio    string `json:"audio" binding:"required"`
	Encoding bool   `json:"encoding"`
}

type SendReactionRequest struct {
	Key struct {
		RemoteJid string `json:"remoteJid" binding:"required"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id" binding:"required"`
	} `json:"key" binding:"required"`
	Reaction string `json:"reaction" binding:"required"`
}

type UpdatePresenceRequest struct {
	Presence string `json:"presence" binding:"required"`
}

type mockInstance struct {
	Name      string          `json:"instanceName"`
	State     ConnectionState `json:"state"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MockGateway simulates a WhatsApp gateway: instances connect after a
// short pairing delay and message dispatch succeeds at a configurable
// rate.
type MockGateway struct {
	mu          sync.Mutex
	instances   map[string]*mockInstance
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	rng         *rand.Rand
}

func NewMockGateway(successRate float64, minDelay, maxDelay time.Duration) *MockGateway {
	return &MockGateway{
		instances:   make(map[string]*mockInstance),
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *MockGateway) createInstance(name string) *mockInstance {
	g.mu.Lock()
	defer g.mu.Unlock()

	if inst, ok := g.instances[name]; ok {
		return inst
	}
	inst := &mockInstance{Name: name, State: StateConnecting, CreatedAt: time.Now()}
	g.instances[name] = inst

	// Pairing completes on its own after a short delay.
	go func() {
		time.Sleep(g.randomDelay())
		g.mu.Lock()
		inst.State = StateOpen
		g.mu.Unlock()
		log.Info().Str("instance", name).Msg("instance connected")
	}()

	return inst
}

func (g *MockGateway) instance(name string) (*mockInstance, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inst, ok := g.instances[name]
	return inst, ok
}

func (g *MockGateway) randomDelay() time.Duration {
	delta := g.maxDelay - g.minDelay
	if delta <= 0 {
		return g.minDelay
	}
	return g.minDelay + time.Duration(g.rng.Int63n(int64(delta)))
}

func (g *MockGateway) shouldSucceed() bool {
	return g.rng.Float64() < g.successRate
}

func (g *MockGateway) fakeQRCode(name string) string {
	payload := base64.StdEncoding.EncodeToString([]byte("pairing:" + name + ":" + uuid.New().String()))
	return "data:image/png;base64," + payload
}

func (g *MockGateway) messageID() string {
	return "3EB0" + uuid.New().String()[:20]
}

type Handler struct {
	gateway *MockGateway
}

func NewHandler(gateway *MockGateway) *Handler {
	return &Handler{gateway: gateway}
}

func (h *Handler) CreateInstance(c *gin.Context) {
	var req CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	inst := h.gateway.createInstance(req.InstanceName)
	log.Info().Str("instance", req.InstanceName).Msg("instance created")

	c.JSON(http.StatusCreated, gin.H{
		"instance": gin.H{
			"instanceName": inst.Name,
			"status":       string(inst.State),
		},
		"qrcode": gin.H{
			"base64": h.gateway.fakeQRCode(inst.Name),
		},
	})
}

func (h *Handler) Connect(c *gin.Context) {
	name := c.Param("instance")
	inst, ok := h.gateway.instance(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}

	if inst.State == StateOpen {
		c.JSON(http.StatusOK, gin.H{"instance": gin.H{"state": string(StateOpen)}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qrcode": gin.H{"base64": h.gateway.fakeQRCode(name)},
	})
}

func (h *Handler) SendText(c *gin.Context) {
	var req SendTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	h.dispatch(c, "text", req.Number)
}

func (h *Handler) SendAudio(c *gin.Context) {
	var req SendAudioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	h.dispatch(c, "audio", req.Number)
}

func (h *Handler) SendReaction(c *gin.Context) {
	var req SendReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	h.dispatch(c, "reaction", req.Key.RemoteJid)
}

// dispatch simulates a send: checks the instance is connected, rolls
// the success rate and answers in the gateway's wire shape.
func (h *Handler) dispatch(c *gin.Context, kind, target string) {
	name := c.Param("instance")
	inst, ok := h.gateway.instance(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}
	if inst.State != StateOpen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "instance not connected", "state": string(inst.State)})
		return
	}

	time.Sleep(h.gateway.randomDelay())

	if !h.gateway.shouldSucceed() {
		log.Warn().Str("instance", name).Str("kind", kind).Str("target", target).Msg("dispatch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to dispatch"})
		return
	}

	id := h.gateway.messageID()
	log.Info().Str("instance", name).Str("kind", kind).Str("target", target).Str("id", id).Msg("dispatched")

	c.JSON(http.StatusCreated, gin.H{
		"key": gin.H{
			"remoteJid": target,
			"fromMe":    true,
			"id":        id,
		},
		"status": "PENDING",
	})
}

func (h *Handler) UpdatePresence(c *gin.Context) {
	var req UpdatePresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	name := c.Param("instance")
	if _, ok := h.gateway.instance(name); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"presence": req.Presence})
}

func (h *Handler) ConnectionState(c *gin.Context) {
	name := c.Param("instance")
	inst, ok := h.gateway.instance(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "instance not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instance": gin.H{"instanceName": name, "state": string(inst.State)}})
}

func SetupRouter(handler *Handler, apiKey string) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request processed")
	})

	if apiKey != "" {
		router.Use(func(c *gin.Context) {
			if c.GetHeader("apikey") != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
				return
			}
			c.Next()
		})
	}

	router.POST("/instance/create", handler.CreateInstance)
	router.GET("/instance/connect/:instance", handler.Connect)
	router.GET("/instance/connectionState/:instance", handler.ConnectionState)
	router.POST("/message/sendText/:instance", handler.SendText)
	router.POST("/message/sendWhatsAppAudio/:instance", handler.SendAudio)
	router.POST("/message/sendReaction/:instance", handler.SendReaction)
	router.POST("/chat/updatePresence/:instance", handler.UpdatePresence)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	apiKey := getEnv("API_KEY", "")
	successRate := getEnvFloat("SUCCESS_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 100*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 800*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("success_rate", successRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("starting mock gateway")

	gatewayMock := NewMockGateway(successRate, minDelay, maxDelay)
	handler := NewHandler(gatewayMock)
	router := SetupRouter(handler, apiKey)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
