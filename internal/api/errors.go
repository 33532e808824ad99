package api

import (
	"errors"   // Error inspection
	"fmt"      // Message formatting
	"net/http" // HTTP status codes
	"strings"  // Message joining

	"wallet_ledger/internal/domain"   // Error taxonomy
	"wallet_ledger/internal/response" // Response envelope

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/go-playground/validator/v10" // Request validation
	"github.com/sirupsen/logrus"             // Logrus for structured logging
)

const (
	internalErrorCode    = "INTERNAL_ERROR"
	internalErrorMessage = "internal server error"
)

// statusFor maps an error classification to an HTTP status
func statusFor(code domain.Code) int {
	switch code {
	case domain.CodeValidation,
		domain.CodeSpamRejected,
		domain.CodeConflict,
		domain.CodeWalletAlreadyExists,
		domain.CodeSelfTransfer,
		domain.CodeInvalidAmount,
		domain.CodeInsufficientBalance:
		return http.StatusBadRequest
	case domain.CodeUserNotFound, domain.CodeWalletNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as an error envelope. Unclassified errors never
// reach the client verbatim.
func writeError(c *gin.Context, log logrus.FieldLogger, err error) {
	code := domain.CodeOf(err)
	if code == "" {
		log.WithError(err).WithField("path", c.FullPath()).Error("unclassified error")
		_ = c.Error(err) // Attach for the request logger
		response.WriteError(c, http.StatusInternalServerError, internalErrorMessage, internalErrorCode)
		return
	}

	status := statusFor(code) // Status for the classification
	if status >= http.StatusInternalServerError {
		_ = c.Error(err) // Attach for the request logger
	}
	response.WriteError(c, status, domain.MessageOf(err), string(code))
}

// writeBindError renders a request decoding or validation failure
func writeBindError(c *gin.Context, err error) {
	message := "invalid request body" // Malformed JSON or wrong types
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		message = strings.Join(formatValidationErrors(verrs), ", ")
	}
	response.WriteError(c, http.StatusBadRequest, message, string(domain.CodeValidation))
}

// formatValidationErrors turns validator failures into client messages
func formatValidationErrors(verrs validator.ValidationErrors) []string {
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		field := e.Field() // JSON name, see registerJSONTagNames
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", field))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must have maximum length %s", field, e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, e.Tag()))
		}
	}
	return msgs
}
