package rbac

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/handler"
	"github.com/jwalitptl/eservice-api/internal/model"
	rbacService "github.com/jwalitptl/eservice-api/internal/service/rbac"
	"github.com/jwalitptl/eservice-api/pkg/validator"
)

// Service is the part of the RBAC service the handlers call.
type Service interface {
	ResolveActor(ctx context.Context, userID uuid.UUID) (*model.Actor, error)
	CreateRole(ctx context.Context, actor *model.Actor, in model.CreateRoleInput) (*model.RoleView, error)
	GetRole(ctx context.Context, actor *model.Actor, id uuid.UUID) (*model.RoleView, error)
	ListRoles(ctx context.Context, actor *model.Actor, search string) ([]*model.RoleView, error)
	UpdateRole(ctx context.Context, actor *model.Actor, id uuid.UUID, in model.UpdateRoleInput) (*model.RoleView, error)
	AssignPermissions(ctx context.Context, actor *model.Actor, roleID uuid.UUID, permissionIDs []uuid.UUID) (*model.AssignResult, error)
	FilterMenu(ctx context.Context, userID uuid.UUID, roleName string, groups [][]model.MenuItem) [][]model.MenuItem
	CheckAction(ctx context.Context, userID uuid.UUID, method, path string) rbacService.Decision
}

var _ Service = (*rbacService.Service)(nil)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	roles := r.Group("/roles")
	{
		roles.GET("", h.ListRoles)
		roles.POST("", h.CreateRole)
		roles.GET("/:roleId", h.GetRole)
		roles.PUT("/:roleId", h.UpdateRole)
		roles.PUT("/:roleId/permissions", h.AssignPermissions)
	}

	me := r.Group("/me")
	{
		me.GET("/permissions", h.MyPermissions)
		me.POST("/menu", h.MyMenu)
	}

	r.POST("/access/check", h.CheckAccess)
}

// actor returns the caller resolved by the route guard, loading it when the
// route had no table entry. It writes the error response when that fails.
func (h *Handler) actor(c *gin.Context) (*model.Actor, bool) {
	if actor := handler.Actor(c); actor != nil {
		return actor, true
	}
	actor, err := h.service.ResolveActor(c.Request.Context(), handler.UserID(c))
	if err != nil {
		handler.RespondError(c, err)
		return nil, false
	}
	return actor, true
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(validator.Describe(err).Error()))
		return false
	}
	return true
}

func (h *Handler) ListRoles(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	roles, err := h.service.ListRoles(c.Request.Context(), actor, c.Query("search"))
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(roles))
}

func (h *Handler) CreateRole(c *gin.Context) {
	var in model.CreateRoleInput
	if !bindJSON(c, &in) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	role, err := h.service.CreateRole(c.Request.Context(), actor, in)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(role))
}

func (h *Handler) GetRole(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "roleId")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	role, err := h.service.GetRole(c.Request.Context(), actor, id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(role))
}

func (h *Handler) UpdateRole(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "roleId")
	if !ok {
		return
	}
	var in model.UpdateRoleInput
	if !bindJSON(c, &in) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	role, err := h.service.UpdateRole(c.Request.Context(), actor, id, in)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(role))
}

func (h *Handler) AssignPermissions(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "roleId")
	if !ok {
		return
	}
	var in model.AssignPermissionsInput
	if !bindJSON(c, &in) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	res, err := h.service.AssignPermissions(c.Request.Context(), actor, id, in.PermissionIDs)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(res))
}

type myPermissions struct {
	UserID      uuid.UUID      `json:"user_id"`
	Role        string         `json:"role"`
	RoleType    model.RoleType `json:"role_type"`
	OfficeID    *uuid.UUID     `json:"office_id,omitempty"`
	Permissions []string       `json:"permissions"`
}

func (h *Handler) MyPermissions(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(myPermissions{
		UserID:      actor.User.ID,
		Role:        actor.Role.Name,
		RoleType:    actor.RoleType,
		OfficeID:    actor.OfficeID,
		Permissions: actor.Permissions.Names(),
	}))
}

// MyMenu filters the caller's navigation. Any failure yields an empty menu.
func (h *Handler) MyMenu(c *gin.Context) {
	var req model.MenuRequest
	if !bindJSON(c, &req) {
		return
	}
	groups := h.service.FilterMenu(c.Request.Context(), handler.UserID(c), req.RoleName, req.Groups)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(groups))
}

// CheckAccess answers whether the caller may perform another action.
// The decision is the payload; the call itself succeeds either way.
func (h *Handler) CheckAccess(c *gin.Context) {
	var req model.AccessCheckRequest
	if !bindJSON(c, &req) {
		return
	}
	d := h.service.CheckAction(c.Request.Context(), handler.UserID(c), req.Method, req.Path)
	c.JSON(http.StatusOK, handler.NewSuccessResponse(d))
}
