package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/eservice-api/internal/handler"
	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/service/rbac"
	"github.com/jwalitptl/eservice-api/pkg/auth"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthorizer struct {
	seen     uuid.UUID
	path     string
	decision rbac.Decision
}

func (s *stubAuthorizer) CheckAction(_ context.Context, userID uuid.UUID, _ string, path string) rbac.Decision {
	s.seen = userID
	s.path = path
	return s.decision
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.Response {
	t.Helper()
	var resp handler.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	tokens := auth.NewJWTService("secret", "eservice", time.Hour)
	userID := uuid.New()
	valid, err := tokens.GenerateAccessToken(userID, "staff")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		decision rbac.Decision
		wantUser uuid.UUID
		status   int
		message  string
	}{
		{
			name:     "valid token allowed",
			header:   "Bearer " + valid,
			decision: rbac.Decision{Allowed: true, StatusCode: http.StatusOK, Message: rbac.MsgAllowed},
			wantUser: userID,
			status:   http.StatusOK,
		},
		{
			name:     "valid token denied",
			header:   "Bearer " + valid,
			decision: rbac.Decision{StatusCode: http.StatusForbidden, Message: rbac.MsgInsufficient},
			wantUser: userID,
			status:   http.StatusForbidden,
			message:  rbac.MsgInsufficient,
		},
		{
			name:     "no token is anonymous",
			decision: rbac.Decision{StatusCode: http.StatusUnauthorized, Message: rbac.MsgUnauthorized},
			wantUser: uuid.Nil,
			status:   http.StatusUnauthorized,
			message:  rbac.MsgUnauthorized,
		},
		{
			name:     "garbage token is anonymous",
			header:   "Bearer not-a-jwt",
			decision: rbac.Decision{Allowed: true, StatusCode: http.StatusOK},
			wantUser: uuid.Nil,
			status:   http.StatusOK,
		},
		{
			name:     "wrong scheme is anonymous",
			header:   "Basic " + valid,
			decision: rbac.Decision{Allowed: true, StatusCode: http.StatusOK},
			wantUser: uuid.Nil,
			status:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthorizer{decision: tt.decision}
			m := NewAuthMiddleware(tokens, stub)

			r := gin.New()
			r.Use(m.Authenticate(), m.Authorize())
			r.GET("/api/roles/:roleId", func(c *gin.Context) {
				c.JSON(http.StatusOK, handler.NewSuccessResponse(handler.UserID(c).String()))
			})

			req := httptest.NewRequest(http.MethodGet, "/api/roles/abc", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.wantUser, stub.seen)
			assert.Equal(t, "/api/roles/abc", stub.path)
			if tt.message != "" {
				resp := decodeResponse(t, w)
				assert.Equal(t, "error", resp.Status)
				assert.Equal(t, tt.message, resp.Message)
			}
		})
	}
}

func TestAuthorizeStoresActor(t *testing.T) {
	tokens := auth.NewJWTService("secret", "eservice", time.Hour)
	userID := uuid.New()
	token, err := tokens.GenerateAccessToken(userID, "manager")
	require.NoError(t, err)

	actor := &model.Actor{User: &model.User{Base: model.Base{ID: userID}}, RoleType: model.RoleTypeManager}
	stub := &stubAuthorizer{decision: rbac.Decision{Allowed: true, StatusCode: http.StatusOK, Actor: actor}}
	m := NewAuthMiddleware(tokens, stub)

	var seen *model.Actor
	r := gin.New()
	r.Use(m.Authenticate(), m.Authorize())
	r.GET("/api/roles", func(c *gin.Context) {
		seen = handler.Actor(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Same(t, actor, seen)
}

func TestRateLimitPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2, TTL: time.Minute})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	assert.Equal(t, http.StatusOK, call("10.0.0.2"))
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeResponse(t, w).Message)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRequestIDReusesHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "req-42", w.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("Office", nil))
	})
	r.GET("/raw", func(c *gin.Context) {
		_ = c.Error(errors.New("pq: broken pipe"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Office not found", decodeResponse(t, w).Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/raw", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeResponse(t, w).Message)
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS(DefaultCORSConfig("https://portal.example.gov")), SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://portal.example.gov")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.gov", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
}
