/**
* Name: 			user_handler.go
* Description: 		/api/users 경로의 Gin 핸들러
* Workflow: 		공개 프로필 조회, 내 프로필 조회/수정, 아바타 업로드, 계정 삭제, 링크 클릭 집계
 */
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"LinkHub_Backend/internal/apperr"
	"LinkHub_Backend/internal/middleware"
	"LinkHub_Backend/internal/models"
	"LinkHub_Backend/internal/service"
)

// UserHandler serves the profile endpoints.
type UserHandler struct {
	profiles *service.ProfileService
}

func NewUserHandler(profiles *service.ProfileService) *UserHandler {
	return &UserHandler{profiles: profiles}
}

// 링크 클릭 응답
type ClickResponse struct {
	Clicks int `json:"clicks" example:"5"`
}

// GetPublicProfile godoc
// @Summary      공개 프로필 조회
// @Description  Returns a profile by username. Email and password hash are never included.
// @Tags         Users
// @Produce      json
// @Param        username path string true "Username"
// @Success      200 {object} models.PublicProfile
// @Failure      404 {object} handler.ErrorResponse "User not found"
// @Failure      500 {object} handler.ErrorResponse
// @Router       /users/{username} [get]
func (h *UserHandler) GetPublicProfile(c *gin.Context) {
	profile, err := h.profiles.GetPublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetMyProfile godoc
// @Summary      내 프로필 조회
// @Description  Returns the authenticated user's profile including email.
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} models.PrivateProfile
// @Failure      401 {object} handler.ErrorResponse
// @Router       /users/me/profile [get]
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, h.profiles.GetPrivateProfile(user))
}

// UpdateProfile godoc
// @Summary      프로필 수정
// @Description  Overwrites the submitted fields. Only bio, avatar, theme and links are accepted;
// @Description  any other key rejects the whole request.
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body models.ProfileUpdate true "Fields to update"
// @Success      200 {object} models.PrivateProfile
// @Failure      400 {object} handler.ErrorResponse "Invalid updates"
// @Failure      401 {object} handler.ErrorResponse
// @Failure      500 {object} handler.ErrorResponse
// @Router       /users/update [post]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	rawData, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request"})
		return
	}
	upd, err := decodeProfileUpdate(rawData)
	if err != nil {
		respondError(c, err)
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), user, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// decodeProfileUpdate accepts a JSON object whose keys are all exact members of the update
// allow-list. encoding/json matches struct fields case-insensitively, so keys are checked on a
// raw map first. null values are rejected rather than read as "not submitted".
func decodeProfileUpdate(raw []byte) (models.ProfileUpdate, error) {
	invalid := apperr.NewValidation("Invalid updates")

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.ProfileUpdate{}, invalid
	}
	for key, value := range fields {
		if !slices.Contains(models.ProfileUpdateFields, key) {
			return models.ProfileUpdate{}, invalid
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return models.ProfileUpdate{}, invalid
		}
	}

	var upd models.ProfileUpdate
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		return models.ProfileUpdate{}, invalid
	}
	return upd, nil
}

// UploadAvatar godoc
// @Summary      아바타 업로드
// @Description  Accepts an image in the multipart field "avatar", crops it to a square and sets it as avatar.
// @Tags         Users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar formData file true "Avatar image"
// @Success      200 {object} service.AvatarResult
// @Failure      400 {object} handler.ErrorResponse "No file uploaded"
// @Failure      401 {object} handler.ErrorResponse
// @Failure      500 {object} handler.ErrorResponse
// @Router       /users/upload-avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	var upload *service.AvatarUpload
	fileHeader, err := c.FormFile("avatar")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// no file; the service reports it
	case err != nil:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid upload"})
		return
	default:
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, apperr.NewInternal("failed to open upload", err))
			return
		}
		defer file.Close()
		upload = &service.AvatarUpload{Filename: fileHeader.Filename, Body: file}
	}

	result, err := h.profiles.UploadAvatar(c.Request.Context(), user, upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteAccount godoc
// @Summary      계정 삭제
// @Description  Permanently deletes the authenticated user's account.
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} handler.SuccessResponse
// @Failure      401 {object} handler.ErrorResponse
// @Failure      500 {object} handler.ErrorResponse
// @Router       /users/me [delete]
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.profiles.DeleteAccount(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "User deleted successfully"})
}

// IncrementLinkClick godoc
// @Summary      링크 클릭 집계
// @Description  Counts one click on the link at the given position and returns the new count.
// @Tags         Users
// @Produce      json
// @Param        username path string true "Username"
// @Param        index    path int    true "Zero-based link position"
// @Success      200 {object} handler.ClickResponse
// @Failure      404 {object} handler.ErrorResponse "User or link not found"
// @Failure      500 {object} handler.ErrorResponse
// @Router       /users/{username}/links/{index}/click [post]
func (h *UserHandler) IncrementLinkClick(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Link not found"})
		return
	}

	clicks, err := h.profiles.IncrementLinkClick(c.Request.Context(), c.Param("username"), index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ClickResponse{Clicks: clicks})
}
