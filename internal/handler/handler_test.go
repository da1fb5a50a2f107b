package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chat-server/internal/mocks"
	"chat-server/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, middlewares ...gin.HandlerFunc) (*gin.Engine, *mocks.MockChatService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := mocks.NewMockChatService(t)
	h := NewChatHandler(svc, zap.NewNop())

	router := gin.New()
	router.GET("/health", HealthCheck)
	router.HEAD("/health", HealthCheck)
	h.RegisterRoutes(router, middlewares...)
	return router, svc
}

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestChat_Success(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("Chat", mock.Anything, "Hello").Return("Hi there!", nil).Once()

	before := testutil.ToFloat64(chatRequestsTotal.WithLabelValues(routeChat, "200"))
	w := postJSON(router, "/api/chat", `{"prompt":"Hello"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"Hi there!"}`, w.Body.String())
	assert.Equal(t, before+1, testutil.ToFloat64(chatRequestsTotal.WithLabelValues(routeChat, "200")))
}

func TestChat_EmptyPromptIsForwarded(t *testing.T) {
	for _, body := range []string{`{"prompt":""}`, `{}`} {
		t.Run(body, func(t *testing.T) {
			router, svc := setupRouter(t)
			svc.On("Chat", mock.Anything, "").Return("", nil).Once()

			w := postJSON(router, "/api/chat", body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"response":""}`, w.Body.String())
		})
	}
}

func TestChat_PromptIsNotAltered(t *testing.T) {
	router, svc := setupRouter(t)
	prompt := "  <b>Ünïcode</b> 🚀\n\t" + strings.Repeat("x", 10000)
	svc.On("Chat", mock.Anything, prompt).Return("ok", nil).Once()

	body, err := json.Marshal(models.ChatRequest{Prompt: prompt})
	require.NoError(t, err)
	w := postJSON(router, "/api/chat", string(body))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChat_MalformedBody(t *testing.T) {
	for _, body := range []string{``, `{"prompt":`, `"Hello"`, `{"prompt":42}`} {
		t.Run(body, func(t *testing.T) {
			// no expectations: the service must not be called
			router, _ := setupRouter(t)

			w := postJSON(router, "/api/chat", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, models.ErrCodeBadRequest, decodeError(t, w).Code)
		})
	}
}

func TestChat_BackendErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "generic failure",
			err:        errors.New("model overloaded"),
			wantStatus: http.StatusBadGateway,
			wantCode:   models.ErrCodeGenerationFailed,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("ai generation failed: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   models.ErrCodeTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, svc := setupRouter(t)
			svc.On("Chat", mock.Anything, "").Return("", tt.err).Once()

			w := postJSON(router, "/api/chat", `{"prompt":""}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode == models.ErrCodeGenerationFailed {
				assert.Equal(t, tt.err.Error(), resp.Message)
			}
		})
	}
}

func TestChat_ClientCanceled(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("Chat", mock.Anything, "Hello").Return("", context.Canceled).Once()

	w := postJSON(router, "/api/chat", `{"prompt":"Hello"}`)

	assert.Equal(t, statusClientClosedRequest, w.Code)
}

func TestChat_PassesRequestContext(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("Chat", mock.MatchedBy(func(ctx context.Context) bool { return ctx != nil }), "Hello").
		Return("Hi there!", nil).Once()

	w := postJSON(router, "/api/chat", `{"prompt":"Hello"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConnectChat_ReturnsBareString(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("Chat", mock.Anything, "Hello").Return("Hi there!", nil).Once()

	w := postJSON(router, "/connect/AiService/chat", `{"prompt":"Hello"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"Hi there!"`, w.Body.String())
}

func TestConnectChat_BackendFailure(t *testing.T) {
	router, svc := setupRouter(t)
	svc.On("Chat", mock.Anything, "Hello").Return("", errors.New("boom")).Once()

	w := postJSON(router, "/connect/AiService/chat", `{"prompt":"Hello"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, models.ErrCodeGenerationFailed, decodeError(t, w).Code)
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t)

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code, method)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
