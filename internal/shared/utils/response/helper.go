package response

import (
	"net/http"

	"cineplex/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError writes err using the status code of its apperror kind.
// Unclassified errors are reported as a generic 500 without leaking internals.
func RespondError(c *gin.Context, err error) {
	e, ok := apperror.As(err)
	if !ok {
		RespondJSON(c, "error", http.StatusInternalServerError, "internal server error", nil, nil)
		return
	}
	code := e.Kind.HTTPStatus()
	RespondJSON(c, "error", code, e.Message, nil, ErrorBody{Code: e.Code, Details: e.Details})
}
