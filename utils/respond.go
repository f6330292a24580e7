// utils/respond.go
package utils

import (
	"github.com/gin-gonic/gin"
)

func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RespondWithFieldErrors returns field-keyed validation messages so the UI
// can surface them next to the offending inputs.
func RespondWithFieldErrors(c *gin.Context, code int, fields map[string]string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error":  "Validation failed",
		"fields": fields,
	})
}
