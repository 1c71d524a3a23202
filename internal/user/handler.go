package user

import (
	"errors"
	"net/http"
	"strconv"

	"miny/internal/api"
	"miny/internal/auth"
	"miny/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service    Service
	publicLink func(slug string) string
}

func NewHandler(service Service, publicLink func(slug string) string) *Handler {
	return &Handler{
		service:    service,
		publicLink: publicLink,
	}
}

// Register godoc
// @Summary      Register new host
// @Description  Creates a host account with a unique public slug and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "Registration data"
// @Success      201      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	user, accessToken, refreshToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
			return
		}
		logger.WithError(err).Error("registration failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// Login godoc
// @Summary      Login host
// @Description  Authenticates a host by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "Credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	user, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
			return
		}
		logger.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Description  Returns a new access token for a valid refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  RefreshResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refresh_token is required"})
		return
	}

	accessToken, user, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "user not found"})
			return
		}
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{AccessToken: accessToken, User: *user})
}

// GetMe godoc
// @Summary      Get current host
// @Description  Returns the profile of the authenticated host with the public link and first-login flag.
// @Tags         me
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Profile
// @Failure      401  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		return
	}

	c.JSON(http.StatusOK, Profile{
		User:         *user,
		IsFirstLogin: user.LoginCount == 0,
		PublicLink:   h.publicLink(user.Slug),
	})
}

// Act godoc
// @Summary      Run an account action
// @Description  Dispatches on "action": hide-welcome or set-privacy.
// @Tags         me
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ActionRequest  true  "Action"
// @Success      200      {object}  api.MessageResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /me/actions [post]
func (h *Handler) Act(c *gin.Context) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "action is required"})
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case ActionHideWelcome:
		if _, err := h.service.HideWelcome(ctx, caller); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Welcome hidden"})

	case ActionSetPrivacy:
		if req.IsPrivate == nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "is_private is required"})
			return
		}
		if err := h.service.SetPrivacy(ctx, caller, *req.IsPrivate); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Privacy updated"})

	default:
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unsupported action"})
	}
}

// Stats godoc
// @Summary      Platform statistics
// @Description  Total hosts, slots and logins. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Stats
// @Failure      500  {object}  api.ErrorResponse
// @Router       /admin/stats [get]
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListUsers godoc
// @Summary      List hosts
// @Description  Pages of 50 hosts. Admin only.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        page     query     int     false  "Page, starting at 1"
// @Param        orderBy  query     string  false  "id, name, email, created_at or login_count"
// @Param        sort     query     string  false  "asc or desc"
// @Success      200      {object}  Page
// @Failure      400      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	q := ListQuery{
		Page:    1,
		OrderBy: c.Query("orderBy"),
		Sort:    c.Query("sort"),
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid page"})
			return
		}
		q.Page = page
	}

	page, err := h.service.ListUsers(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
	default:
		logger.WithError(err).Error("user request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
