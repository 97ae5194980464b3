package doctor

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/availability"
	"github.com/jwalitptl/hospital-api/pkg/errors"
)

const maxDays = 90

type Handler struct {
	*handler.BaseHandler
	service *availability.Service
	loc     *time.Location
	now     func() time.Time
}

func NewHandler(store repository.Store, service *availability.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		BaseHandler: handler.NewBaseHandler(store),
		service:     service,
		loc:         loc,
		now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	{
		doctors.GET("/:id/availability", h.GetAvailability)
		doctors.GET("/:id/availability/weekly", h.GetWeeklyAvailability)
		doctors.PUT("/:id/availability", h.SetAvailability)
	}
}

// GetAvailability expands the weekly pattern into dated windows. from
// defaults to today, days to the configured horizon.
func (h *Handler) GetAvailability(c *gin.Context) {
	doctorID, err := h.UUIDParam(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	from := model.DateOf(h.now().In(h.loc))
	if raw := c.Query("from"); raw != "" {
		if from, err = model.ParseDate(raw); err != nil {
			handler.Fail(c, errors.Validation("invalid from date", err))
			return
		}
	}

	days := h.service.Horizon()
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > maxDays {
			handler.Fail(c, errors.Validation("days must be between 1 and "+strconv.Itoa(maxDays), err))
			return
		}
	}

	windows, err := h.service.Windows(c.Request.Context(), h.Store, doctorID, from, days)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if windows == nil {
		windows = []model.AvailabilityWindow{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"doctor_id": doctorID,
		"from":      from,
		"days":      days,
		"windows":   windows,
	}))
}

func (h *Handler) GetWeeklyAvailability(c *gin.Context) {
	doctorID, err := h.UUIDParam(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	entries, err := h.service.Weekly(c.Request.Context(), h.Store, doctorID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}

func (h *Handler) SetAvailability(c *gin.Context) {
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

	var req model.SetAvailabilityRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	var entries []*model.WeeklyAvailability
	err = h.InTx(c, func(repos repository.Repositories) error {
		var err error
		entries, err = h.service.SetWeekly(c.Request.Context(), repos, actor, doctorID, req.Entries)
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}
	// a read between SetWeekly and commit may have cached the old pattern
	h.service.Invalidate(doctorID)

	c.JSON(http.StatusOK, handler.NewSuccessResponse(entries))
}
