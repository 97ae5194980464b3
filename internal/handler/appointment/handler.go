package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/appointment"
	"github.com/jwalitptl/hospital-api/pkg/errors"
)

type Handler struct {
	*handler.BaseHandler
	service *appointment.Service
}

func NewHandler(store repository.Store, service *appointment.Service) *Handler {
	return &Handler{
		BaseHandler: handler.NewBaseHandler(store),
		service:     service,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:code", h.GetAppointment)
		appointments.POST("/:code/confirm", h.ConfirmAppointment)
		appointments.POST("/:code/start", h.StartAppointment)
		appointments.POST("/:code/complete", h.CompleteAppointment)
		appointments.POST("/:code/cancel", h.CancelAppointment)
		appointments.POST("/:code/reschedule", h.RescheduleAppointment)
		appointments.POST("/:code/no-show", h.MarkNoShow)
	}
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.BookAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	var apt *model.Appointment
	err = h.InTx(c, func(repos repository.Repositories) error {
		var err error
		apt, err = h.service.Create(c.Request.Context(), repos, actor, &req)
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) GetAppointment(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	apt, err := h.service.Get(c.Request.Context(), h.Store, actor, c.Param("code"))
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	filters, err := parseFilters(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), h.Store, actor, filters)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func parseFilters(c *gin.Context) (model.AppointmentFilters, error) {
	var filters model.AppointmentFilters

	if id := c.Query("doctor_id"); id != "" {
		doctorID, err := uuid.Parse(id)
		if err != nil {
			return filters, errors.Validation("invalid doctor_id", err)
		}
		filters.DoctorID = &doctorID
	}

	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			return filters, errors.Validation("invalid patient_id", err)
		}
		filters.PatientID = &patientID
	}

	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
		if !filters.Status.IsValid() {
			return filters, errors.Validation("invalid status", nil)
		}
	}

	if raw := c.Query("from"); raw != "" {
		from, err := model.ParseDate(raw)
		if err != nil {
			return filters, errors.Validation("invalid from date", err)
		}
		filters.From = &from
	}

	if raw := c.Query("to"); raw != "" {
		to, err := model.ParseDate(raw)
		if err != nil {
			return filters, errors.Validation("invalid to date", err)
		}
		filters.To = &to
	}

	return filters, nil
}

type transitionFunc func(ctx *gin.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error)

// transition runs a body-less status change in one transaction.
func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var apt *model.Appointment
	err = h.InTx(c, func(repos repository.Repositories) error {
		var err error
		apt, err = fn(c, repos, actor, c.Param("code"))
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, func(c *gin.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
		return h.service.Confirm(c.Request.Context(), repos, actor, code)
	})
}

func (h *Handler) StartAppointment(c *gin.Context) {
	h.transition(c, func(c *gin.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
		return h.service.Start(c.Request.Context(), repos, actor, code)
	})
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.transition(c, func(c *gin.Context, repos repository.Repositories, actor model.Actor, code string) (*model.Appointment, error) {
		return h.service.MarkNoShow(c.Request.Context(), repos, actor, code)
	})
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.CompleteAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	var (
		apt       *model.Appointment
		treatment *model.Treatment
	)
	err = h.InTx(c, func(repos repository.Repositories) error {
		var err error
		apt, treatment, err = h.service.Complete(c.Request.Context(), repos, actor, c.Param("code"), &req)
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"appointment": apt,
		"treatment":   treatment,
	}))
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	// the body is optional
	var req model.CancelAppointmentRequest
	if err := handler.BindOptionalJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	var apt *model.Appointment
	err = h.InTx(c, func(repos repository.Repositories) error {
		var err error
		apt, err = h.service.Cancel(c.Request.Context(), repos, actor, c.Param("code"), req.Reason)
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("appointment cancelled", apt))
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	var apt *model.Appointment
	err = h.InTx(c, func(repos repository.Repositories) error {
		var err error
		apt, err = h.service.Reschedule(c.Request.Context(), repos, actor, c.Param("code"), &req)
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewMessageResponse("appointment rescheduled", apt))
}
