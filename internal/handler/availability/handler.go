package availability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/eservice-api/internal/handler"
	"github.com/jwalitptl/eservice-api/internal/model"
	availabilityService "github.com/jwalitptl/eservice-api/internal/service/availability"
	"github.com/jwalitptl/eservice-api/pkg/validator"
)

type Service interface {
	GetConfig(ctx context.Context, officeID uuid.UUID) (*model.OfficeAvailability, error)
	UpdateConfig(ctx context.Context, actorID, officeID uuid.UUID, in model.PartialConfig) (*model.OfficeAvailability, error)
	GetAvailableSlots(ctx context.Context, officeID uuid.UUID, date string) (*model.AvailabilityResult, error)
	IsSlotBookable(ctx context.Context, officeID uuid.UUID, date, clock string) (bool, error)
}

var _ Service = (*availabilityService.Service)(nil)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	office := r.Group("/office/:officeId/availability")
	{
		office.GET("", h.GetConfig)
		office.PUT("", h.UpdateConfig)
		office.GET("/slots", h.GetSlots)
		office.GET("/check", h.CheckSlot)
	}
}

func (h *Handler) GetConfig(c *gin.Context) {
	officeID, ok := handler.ParamUUID(c, "officeId")
	if !ok {
		return
	}
	cfg, err := h.service.GetConfig(c.Request.Context(), officeID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cfg))
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	officeID, ok := handler.ParamUUID(c, "officeId")
	if !ok {
		return
	}
	var in model.PartialConfig
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(validator.Describe(err).Error()))
		return
	}

	cfg, err := h.service.UpdateConfig(c.Request.Context(), handler.UserID(c), officeID, in)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(cfg))
}

type slotQuery struct {
	Date string `form:"date" binding:"required"`
	Time string `form:"time"`
}

func (h *Handler) GetSlots(c *gin.Context) {
	officeID, ok := handler.ParamUUID(c, "officeId")
	if !ok {
		return
	}
	var q slotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date is required"))
		return
	}

	res, err := h.service.GetAvailableSlots(c.Request.Context(), officeID, q.Date)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(res))
}

type slotCheck struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

func (h *Handler) CheckSlot(c *gin.Context) {
	officeID, ok := handler.ParamUUID(c, "officeId")
	if !ok {
		return
	}
	var q slotQuery
	if err := c.ShouldBindQuery(&q); err != nil || q.Time == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("date and time are required"))
		return
	}

	ok, err := h.service.IsSlotBookable(c.Request.Context(), officeID, q.Date, q.Time)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(slotCheck{Date: q.Date, Time: q.Time, Available: ok}))
}
