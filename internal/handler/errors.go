package handler

import (
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"LinkHub_Backend/internal/apperr"
)

const genericErrorMessage = "Something went wrong!"

type SuccessResponse struct {
	Message string `json:"message" example:"User deleted successfully"`
}

type ErrorResponse struct {
	Error string `json:"error" example:"User not found"`
}

// respondError writes the client-facing error. Internal errors are logged and replaced
// by a generic message.
func respondError(c *gin.Context, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.Internal {
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.AbortWithStatusJSON(ae.StatusCode(), ErrorResponse{Error: genericErrorMessage})
		return
	}
	c.AbortWithStatusJSON(ae.StatusCode(), ErrorResponse{Error: ae.Message})
}
