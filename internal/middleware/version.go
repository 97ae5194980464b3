package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

const HeaderAcceptVersion = "Accept-Version"

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)$`)

// Version stamps X-API-Version on every response. A client may pin a
// version with Accept-Version; any other value than current is refused.
func Version(current string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", current)

		requested := c.GetHeader(HeaderAcceptVersion)
		if requested == "" || requested == current {
			c.Next()
			return
		}

		msg := fmt.Sprintf("API version %s not supported", requested)
		status := http.StatusNotAcceptable
		if !versionRegex.MatchString(requested) {
			msg = "invalid version format, use major.minor"
			status = http.StatusBadRequest
		}
		c.AbortWithStatusJSON(status, ErrorResponse{
			Status:  "error",
			Code:    "unsupported_version",
			Message: msg,
			TraceID: c.GetString(ContextRequestID),
		})
	}
}
