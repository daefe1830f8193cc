/**
* Name: 			auth_handler.go
* Description: 		/api/auth 경로의 Gin 핸들러
* Workflow: 		회원가입, 로그인, 비밀번호 변경
 */
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LinkHub_Backend/internal/middleware"
	"LinkHub_Backend/internal/service"
)

// AuthHandler serves the registration and login endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// /change-password 요청 바디
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required" example:"password123"`
	NewPassword     string `json:"newPassword" binding:"required" example:"n3w-passw0rd"`
}

// Register godoc
// @Summary      회원가입 (Register)
// @Description  Creates an account and returns a bearer token with the private profile.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        X-Invite-Code header string false "Invite code, when registration is closed"
// @Param        request body service.RegisterInput true "Registration data"
// @Success      201 {object} service.AuthResult
// @Failure      400 {object} handler.ErrorResponse
// @Failure      403 {object} handler.ErrorResponse
// @Failure      409 {object} handler.ErrorResponse
// @Failure      500 {object} handler.ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.InvalidInput(err))
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login godoc
// @Summary      로그인 (Login)
// @Description  Exchanges email (or username) and password for a bearer token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body service.LoginInput true "Credentials"
// @Success      200 {object} service.AuthResult
// @Failure      400 {object} handler.ErrorResponse
// @Failure      401 {object} handler.ErrorResponse "Invalid credentials"
// @Failure      500 {object} handler.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.InvalidInput(err))
		return
	}

	result, err := h.accounts.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ChangePassword godoc
// @Summary      비밀번호 변경 (Change password)
// @Description  Replaces the password. Tokens issued before the change are rejected afterwards.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body handler.ChangePasswordRequest true "Current and new password"
// @Success      200 {object} service.AuthResult
// @Failure      400 {object} handler.ErrorResponse
// @Failure      401 {object} handler.ErrorResponse
// @Failure      500 {object} handler.ErrorResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, service.InvalidInput(err))
		return
	}

	result, err := h.accounts.ChangePassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
