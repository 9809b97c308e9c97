package http

import (
	"net/http"

	"github.com/twineproject/twine/internal/auth/service"
	"github.com/twineproject/twine/pkg/httpx"
	"github.com/twineproject/twine/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Get user information
//	@Description	Returns information about the authenticated user.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	UserInfoResponse	"User information (user_id, email, role, enabled)"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/userinfo [get].
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	email, ok := httpx.UserEmailFromContext(ctx)
	if !ok || email == "" {
		httpx.WriteError(w, r, http.StatusUnauthorized, "invalid access token")
		return
	}

	user, err := h.UserService.GetUserByEmail(ctx, email)
	if err != nil {
		log.Warn("failed to load user", "err", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, "failed to load user")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UserInfoResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    string(user.Role),
		Enabled: user.Enabled,
	})
}
