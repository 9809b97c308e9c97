package http

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/twineproject/twine/internal/auth/service"
	"github.com/twineproject/twine/pkg/httpx"
	"github.com/twineproject/twine/pkg/slogx"
)

type LoginHandler struct {
	RegistrationService *service.RegistrationService
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate runs the boundary validation rules.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Verifies email/password credentials and returns a bearer token
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"Email and password"
//	@Success		200		{object}	TokenResponse		"Bearer token"
//	@Failure		400		{object}	httpx.ErrorResponse	"Validation failure"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid credentials"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal failure"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.RegistrationService.Authenticate(ctx, service.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// Deliberately the same message whether the account exists or not.
			httpx.WriteError(w, r, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Error("failed to authenticate user", "err", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}
