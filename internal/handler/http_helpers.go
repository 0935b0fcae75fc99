package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgPostNotFound     = "Post does not exist"
	msgPermissionDenied = "You do not have permission to perform this action."
	msgSlugRequired     = "A valid slug must be provided"
)

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func respondJSONBytes(c *gin.Context, payload []byte) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}
