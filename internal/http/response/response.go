package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kreaker/cnc-backend/internal/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondServiceError maps a service failure to its HTTP status. Logical
// failures carry their own status and code; anything else is reported
// generically so internals never leak to the client.
func RespondServiceError(c *gin.Context, err error) {
	status := apierr.StatusOf(err)
	if status == http.StatusInternalServerError {
		RespondError(c, status, "internal_error", nil)
		return
	}
	RespondError(c, status, apierr.CodeOf(err), err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
