package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/eservice-api/internal/model"
	apperrors "github.com/jwalitptl/eservice-api/pkg/errors"
)

// Gin context keys set by the auth middleware.
const (
	ContextUserID = "user_id"
	ContextActor  = "actor"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes err in the error envelope. AppError messages are
// returned as-is; anything else becomes a generic 500.
func RespondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.As(err); ok {
		status := appErr.StatusCode()
		if status >= http.StatusInternalServerError {
			logError(c, err)
		}
		c.JSON(status, NewErrorResponse(appErr.Message))
		return
	}
	logError(c, err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse("Internal server error"))
}

func logError(c *gin.Context, err error) {
	log.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.GetString("request_id")).
		Msg("request failed")
}

// SetUserID stores the authenticated user id on the request.
func SetUserID(c *gin.Context, id uuid.UUID) {
	c.Set(ContextUserID, id)
}

// UserID returns the authenticated user id, or uuid.Nil for anonymous requests.
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// SetActor stores the actor resolved by the route guard.
func SetActor(c *gin.Context, actor *model.Actor) {
	c.Set(ContextActor, actor)
}

// Actor returns the actor resolved by the route guard for the current user, if any.
func Actor(c *gin.Context) *model.Actor {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil
	}
	actor, ok := v.(*model.Actor)
	if !ok || actor == nil || actor.User == nil || actor.User.ID != UserID(c) {
		return nil
	}
	return actor
}

// ParamUUID parses a path parameter, responding 400 when it is malformed.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
