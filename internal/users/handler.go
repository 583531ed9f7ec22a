package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docsummary-backend/internal/documents"
	"docsummary-backend/internal/shared/server/middleware"
	"docsummary-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/users/create", h.create)
	rg.POST("/users/login", h.login)
	rg.GET("/users/:userId", h.get)
}

type createRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Username string `json:"username"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.SetUsername(c, req.Username)

	user, err := h.Svc.Create(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		h.fail(c, err, "failed to create user")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"user":    userResponse{Username: user.Username},
		"error":   nil,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	middleware.SetUsername(c, req.Username)

	user, err := h.Svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err, "failed to log in")
		return
	}
	respond.OK(c, gin.H{
		"success": true,
		"user":    userResponse{Username: user.Username},
	})
}

func (h *Handler) get(c *gin.Context) {
	username := c.Param("userId")
	middleware.SetUsername(c, username)

	profile, err := h.Svc.GetWithDocuments(c.Request.Context(), username)
	if err != nil {
		h.fail(c, err, "failed to load user")
		return
	}
	// Documents is always present, [] for a user with no uploads.
	respond.OK(c, gin.H{
		"success": true,
		"user": gin.H{
			"username":  profile.User.Username,
			"documents": documents.ToResponses(profile.Documents),
		},
	})
}

func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrValidation):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrDuplicateUser):
		respond.Error(c, http.StatusConflict, "duplicate_user", "username already exists", nil)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusUnauthorized, "user_not_found", "user not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "storage_error", fallback, nil)
	}
}
