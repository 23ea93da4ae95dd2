package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/registro/backend/internal/models"
	"github.com/registro/backend/pkg/response"
)

// LoginRequest is the body for POST /api/login.
type LoginRequest struct {
	ID       string `json:"id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the login response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// UserFinder looks users up by id.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	users  UserFinder
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(users UserFinder, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{users: users, jwt: jwt, logger: logger}
}

// Login handles POST /api/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), req.ID)
	if errors.Is(err, ErrUserNotFound) {
		response.Unauthorized(c, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("login lookup", zap.String("user_id", req.ID), zap.Error(err))
		response.Internal(c, "db")
		return
	}
	if !CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "Invalid password")
		return
	}

	var classID string
	if user.ClassID != nil {
		classID = *user.ClassID
	}
	token, err := h.jwt.Generate(user.ID, string(user.Role), classID)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
