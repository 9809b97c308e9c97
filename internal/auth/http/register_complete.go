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

type RegisterCompleteHandler struct {
	RegistrationService *service.RegistrationService
}

type RegisterCompleteRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Otp      string `json:"otp"`
}

// Validate runs the boundary validation rules.
func (r RegisterCompleteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Otp, validation.Required, validation.Length(6, 6), is.Digit),
	)
}

// ServeHTTP godoc
//
//	@Summary		Complete Registration Endpoint
//	@Description	Verifies the emailed one-time code, creates the account, and returns the first bearer token
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterCompleteRequest	true	"Email, password and verification code"
//	@Success		200		{object}	TokenResponse			"Bearer token for the new account"
//	@Failure		400		{object}	httpx.ErrorResponse		"Validation failure"
//	@Failure		401		{object}	httpx.ErrorResponse		"Code missing, expired, or wrong"
//	@Failure		409		{object}	httpx.ErrorResponse		"Email already registered"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal failure"
//	@Router			/v1/auth/register/complete [post].
func (h *RegisterCompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterCompleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.RegistrationService.CompleteRegistration(ctx, req.Email, req.Password, req.Otp)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			httpx.WriteError(w, r, http.StatusConflict, "email is already registered")
		case errors.Is(err, service.ErrOtpNotFound):
			httpx.WriteError(w, r, http.StatusUnauthorized, "no active verification code for this email")
		case errors.Is(err, service.ErrOtpExpired):
			httpx.WriteError(w, r, http.StatusUnauthorized, "verification code has expired")
		case errors.Is(err, service.ErrOtpInvalid):
			httpx.WriteError(w, r, http.StatusUnauthorized, "verification code is incorrect")
		default:
			log.Error("failed to complete registration", "err", err)
			httpx.WriteError(w, r, http.StatusInternalServerError, "failed to complete registration")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{Token: token})
}
