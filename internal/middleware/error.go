package middleware

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hospital-api/pkg/errors"
)

// ErrorResponse is the error envelope shared by every handler
type ErrorResponse struct {
	Status  string            `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  []ValidationError `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// ErrorHandler renders the last error pushed with c.Error. Handlers only
// need to record the error and return.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle errors if they exist
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		traceID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last().Err
		status, body := renderError(lastErr, traceID)

		event := log.Warn()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Err(lastErr).
			Str("request_id", traceID).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Str("code", body.Code).
			Msg("Request error")

		c.JSON(status, body)
	}
}

func renderError(err error, traceID string) (int, ErrorResponse) {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) {
		return http.StatusBadRequest, ErrorResponse{
			Status:  "error",
			Code:    errors.ErrValidation.String(),
			Message: "request validation failed",
			Fields:  validationDetails(verrs),
			TraceID: traceID,
		}
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Status:  "error",
			Code:    codePayloadTooLarge,
			Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			TraceID: traceID,
		}
	}

	code := errors.CodeOf(err)
	message := "internal server error"
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) && code.HTTPStatus() < http.StatusInternalServerError {
		message = appErr.Message
	}
	return code.HTTPStatus(), ErrorResponse{
		Status:  "error",
		Code:    code.String(),
		Message: message,
		TraceID: traceID,
	}
}

func abortWithError(c *gin.Context, err error) {
	status, body := renderError(err, c.GetString(ContextRequestID))
	c.AbortWithStatusJSON(status, body)
}
