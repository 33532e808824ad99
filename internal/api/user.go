package api

import (
	"context"  // Request scoped context
	"net/http" // HTTP status codes

	"wallet_ledger/internal/domain"   // Importing domain models
	"wallet_ledger/internal/response" // Response envelope

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// UserService is the user directory consumed by the user handlers
type UserService interface {
	Create(ctx context.Context, email, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ListAll(ctx context.Context) ([]domain.User, error)
}

// CreateUserRequest represents a registration request
type CreateUserRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"` // User email address
	Username string `json:"username" binding:"required,max=255"`    // Username, stored lower case
}

// emailQuery binds GET /user/by-email
type emailQuery struct {
	Email string `form:"email" binding:"required"` // Email to look up
}

// CreateUserHandler registers a new user
func CreateUserHandler(users UserService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			writeBindError(c, err) // Invalid body
			return
		}
		user, err := users.Create(c.Request.Context(), req.Email, req.Username)
		if err != nil {
			writeError(c, log, err) // Validation, spam, conflict or storage failure
			return
		}
		response.WriteSuccess(c, http.StatusCreated, "user created successfully", user)
	}
}

// ListUsersHandler returns every user, newest first
func ListUsersHandler(users UserService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := users.ListAll(c.Request.Context())
		if err != nil {
			writeError(c, log, err)
			return
		}
		response.WriteSuccess(c, http.StatusOK, "users retrieved successfully", list)
	}
}

// GetUserHandler returns a user by id
func GetUserHandler(users UserService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, log, err) // Not found or storage failure
			return
		}
		response.WriteSuccess(c, http.StatusOK, "user retrieved successfully", user)
	}
}

// GetUserByEmailHandler returns a user by email, or null data when absent
func GetUserByEmailHandler(users UserService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q emailQuery // Bind query string
		if err := c.ShouldBindQuery(&q); err != nil {
			writeBindError(c, err)
			return
		}
		user, err := users.FindByEmail(c.Request.Context(), q.Email)
		if err != nil {
			writeError(c, log, err)
			return
		}
		writeOptionalUser(c, user)
	}
}

// GetUserByUsernameHandler returns a user by username, or null data when absent
func GetUserByUsernameHandler(users UserService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.FindByUsername(c.Request.Context(), c.Param("username"))
		if err != nil {
			writeError(c, log, err)
			return
		}
		writeOptionalUser(c, user)
	}
}

func writeOptionalUser(c *gin.Context, user *domain.User) {
	if user == nil {
		response.WriteSuccess(c, http.StatusOK, "user not found", nil) // Absence is not an error here
		return
	}
	response.WriteSuccess(c, http.StatusOK, "user retrieved successfully", user)
}
