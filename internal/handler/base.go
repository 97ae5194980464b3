package handler

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/hospital-api/internal/middleware"
	"github.com/jwalitptl/hospital-api/internal/model"
	"github.com/jwalitptl/hospital-api/internal/repository"
	"github.com/jwalitptl/hospital-api/pkg/errors"
)

// BaseHandler is embedded by the resource handlers. Mutating requests run
// through InTx so that one request is one transaction.
type BaseHandler struct {
	Store repository.Store
}

func NewBaseHandler(store repository.Store) *BaseHandler {
	return &BaseHandler{Store: store}
}

// InTx runs fn inside a single transaction bound to the request context.
func (h *BaseHandler) InTx(c *gin.Context, fn func(repository.Repositories) error) error {
	return h.Store.WithTx(c.Request.Context(), fn)
}

// Actor returns the authenticated caller.
func (h *BaseHandler) Actor(c *gin.Context) (model.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return model.Actor{}, errors.Unauthorized(nil)
	}
	return actor, nil
}

// UUIDParam parses a path parameter as a UUID.
func (h *BaseHandler) UUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.Validation("invalid "+name, err)
	}
	return id, nil
}

// Fail records err for middleware.ErrorHandler.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
}

// BindJSON decodes and validates the request body. Field validation errors
// and oversized bodies keep their own rendering; anything else the decoder
// rejects is a validation error.
func BindJSON(c *gin.Context, obj interface{}) error {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &verrs) || stderrors.As(err, &tooLarge) {
		return err
	}
	return errors.Validation("invalid request body", err)
}

// BindOptionalJSON is BindJSON for requests whose body may be absent.
func BindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	err := BindJSON(c, obj)
	if stderrors.Is(err, io.EOF) {
		return nil
	}
	return err
}
