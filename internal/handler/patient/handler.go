package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/hospital-api/internal/handler"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/internal/service/appointment"
	"github.com/jwalitptl/hospital-api/internal/service/patient"
)

type Handler struct {
	*handler.BaseHandler
	service      *patient.Service
	appointments *appointment.Service
}

func NewHandler(store repository.Store, service *patient.Service, appointments *appointment.Service) *Handler {
	return &Handler{
		BaseHandler:  handler.NewBaseHandler(store),
		service:      service,
		appointments: appointments,
	}
}

// RegisterPublicRoutes mounts registration, which needs no token.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/patients", h.RegisterPatient)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.GET("/:code", h.GetPatient)
		patients.GET("/:code/history", h.GetHistory)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.RegisterPatientRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	var p *model.Patient
	err := h.InTx(c, func(repos repository.Repositories) error {
		var err error
		p, err = h.service.Register(c.Request.Context(), repos, &req)
		return err
	})
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) GetPatient(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	p, err := h.service.GetByCode(c.Request.Context(), h.Store, actor, c.Param("code"))
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(p))
}

// GetHistory lists the patient's completed appointments with treatments.
func (h *Handler) GetHistory(c *gin.Context) {
	actor, err := h.Actor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	p, err := h.service.GetByCode(c.Request.Context(), h.Store, actor, c.Param("code"))
	if err != nil {
		handler.Fail(c, err)
		return
	}

	history, err := h.appointments.PatientHistory(c.Request.Context(), h.Store, actor, p.ID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if history == nil {
		history = []model.PatientHistoryEntry{}
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"patient": p,
		"history": history,
	}))
}
