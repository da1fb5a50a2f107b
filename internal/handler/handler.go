package handler

import (
	"net/http"
	"strconv"

	"chat-server/internal/service"
	"chat-server/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	routeChat        = "/api/chat"
	routeConnectChat = "/connect/AiService/chat"
)

// ChatHandler exposes ChatService over HTTP/JSON.
type ChatHandler struct {
	chatService service.ChatService
	logger      *zap.Logger
}

// NewChatHandler creates a handler for the chat routes.
func NewChatHandler(chatService service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger.Named("ChatHandler"),
	}
}

// RegisterRoutes mounts the chat routes. middlewares (auth, rate limit) apply
// to the chat routes only and run after the request counter, so rejected
// requests are counted too.
func (h *ChatHandler) RegisterRoutes(router gin.IRouter, middlewares ...gin.HandlerFunc) {
	router.POST(routeChat, withRequestCounter(routeChat, middlewares, h.chat)...)
	// Path used by browser clients generated for the AiService endpoint.
	router.POST(routeConnectChat, withRequestCounter(routeConnectChat, middlewares, h.connectChat)...)
}

func withRequestCounter(route string, middlewares []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(middlewares)+2)
	chain = append(chain, countRequests(route))
	chain = append(chain, middlewares...)
	return append(chain, h)
}

// countRequests records chat_requests_total once the rest of the chain is done.
func countRequests(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		chatRequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// chat handles POST /api/chat and answers {"response": "..."}.
func (h *ChatHandler) chat(c *gin.Context) {
	result, ok := h.forward(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.ChatResponse{Response: result})
}

// connectChat handles POST /connect/AiService/chat and answers with the bare
// JSON string.
func (h *ChatHandler) connectChat(c *gin.Context) {
	result, ok := h.forward(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// forward decodes the request body and calls the chat service. On failure the
// response is already written and ok is false.
func (h *ChatHandler) forward(c *gin.Context) (result string, ok bool) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Invalid chat request body", zap.Error(err))
		handleServiceError(c, models.ErrBadRequest)
		return "", false
	}

	result, err := h.chatService.Chat(c.Request.Context(), req.Prompt)
	if err != nil {
		_ = c.Error(err)
		handleServiceError(c, err)
		return "", false
	}
	return result, true
}

// HealthCheck answers GET/HEAD /health.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}
