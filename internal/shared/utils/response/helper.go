package response

import "github.com/gin-gonic/gin"

// Error writes the {message} error payload with the given status code.
func Error(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorResponse{Message: message})
}

// Message writes a plain acknowledgement payload.
func Message(c *gin.Context, code int, message string) {
	c.JSON(code, MessageResponse{Message: message})
}
