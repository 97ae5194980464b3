package stats

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/stats"
)

type Handler struct {
	*handler.BaseHandler
	service *stats.Service
}

func NewHandler(store repository.Store, service *stats.Service) *Handler {
	return &Handler{
		BaseHandler: handler.NewBaseHandler(store),
		service:     service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	s := r.Group("/stats")
	{
		s.GET("/dashboard", h.Dashboard)
		s.GET("/doctors/:id", h.DoctorBreakdown)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), actor)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(dashboard))
}

func (h *Handler) DoctorBreakdown(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	doctorID, err := h.UUIDParam(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	breakdown, err := h.service.DoctorBreakdown(c.Request.Context(), actor, doctorID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(breakdown))
}
