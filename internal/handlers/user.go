package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listforge/listforge-backend/internal/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	user, err := uh.userService.GetCurrentUser(c.Request.Context())
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	var patch services.UserProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	user, err := uh.userService.UpdateProfile(c.Request.Context(), patch)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}

func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, services.MaxUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}

	user, err := uh.userService.UploadAvatar(c.Request.Context(), raw)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, user)
}
