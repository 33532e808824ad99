package response

import (
	"github.com/gin-gonic/gin" // Gin web framework
)

// Response is the JSON envelope of every API reply
type Response struct {
	Success bool   `json:"success"`         // Whether the request succeeded
	Message string `json:"message"`         // Human readable outcome
	Data    any    `json:"data"`            // Payload, null when absent
	Error   string `json:"error,omitempty"` // Machine readable error code
}

// Success builds a success envelope
func Success(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// Failure builds an error envelope
func Failure(message, code string) Response {
	return Response{Success: false, Message: message, Error: code}
}

// WriteSuccess writes a success envelope with the given status
func WriteSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Success(message, data))
}

// WriteError writes an error envelope with the given status
func WriteError(c *gin.Context, status int, message, code string) {
	c.JSON(status, Failure(message, code))
}

// AbortWithError writes an error envelope and stops the handler chain
func AbortWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, Failure(message, code))
}
