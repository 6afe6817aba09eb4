package permission

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/eservice-api/internal/handler"
	"github.com/jwalitptl/eservice-api/internal/model"
	"github.com/jwalitptl/eservice-api/internal/service/permission"
)

type Lister interface {
	ListPermissions(ctx context.Context) ([]*model.Permission, error)
}

type Handler struct {
	service Lister
	routes  *permission.Table
}

func NewHandler(service Lister, routes *permission.Table) *Handler {
	return &Handler{service: service, routes: routes}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	perms := r.Group("/permissions")
	{
		perms.GET("", h.ListPermissions)
		perms.GET("/routes", h.ListRoutes)
	}
}

func (h *Handler) ListPermissions(c *gin.Context) {
	permissions, err := h.service.ListPermissions(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(permissions))
}

type routeView struct {
	Method      string           `json:"method"`
	Pattern     string           `json:"pattern"`
	Public      bool             `json:"public"`
	Permissions []string         `json:"permissions"`
	Audience    []model.RoleType `json:"audience"`
}

// ListRoutes exposes the route table so front ends can hide links the user cannot follow.
func (h *Handler) ListRoutes(c *gin.Context) {
	routes := h.routes.Routes()
	out := make([]routeView, 0, len(routes))
	for _, rt := range routes {
		names := rt.Requirement.Names()
		perms := make([]string, len(names))
		for i, n := range names {
			perms[i] = string(n)
		}
		audience := rt.Audience
		if audience == nil {
			audience = []model.RoleType{}
		}
		out = append(out, routeView{
			Method:      rt.Method,
			Pattern:     rt.Pattern,
			Public:      rt.Requirement.IsPublic(),
			Permissions: perms,
			Audience:    audience,
		})
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}
