package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the uniform error envelope for all failed stage requests.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// respondPrecondition reports a missing input or session key. No side effects
// were attempted.
func respondPrecondition(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: err.Error()})
}

// respondStageError reports a stage failure with the service's own detail.
func respondStageError(c *gin.Context, stage string, err error) {
	c.JSON(http.StatusInternalServerError, ErrorBody{
		Error:   "Error in " + stage,
		Details: err.Error(),
	})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
