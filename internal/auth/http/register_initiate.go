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

type RegisterInitiateHandler struct {
	RegistrationService *service.RegistrationService
}

type RegisterInitiateRequest struct {
	Email string `json:"email"`
}

// Validate runs the boundary validation rules.
func (r RegisterInitiateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ServeHTTP godoc
//
//	@Summary		Initiate Registration Endpoint
//	@Description	Starts registration for a new account by emailing a one-time verification code to the address
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body	RegisterInitiateRequest	true	"Email to register"
//	@Success		200		"Verification code dispatched"
//	@Failure		400		{object}	httpx.ErrorResponse	"Validation failure"
//	@Failure		409		{object}	httpx.ErrorResponse	"Email already registered"
//	@Failure		500		{object}	httpx.ErrorResponse	"Delivery or internal failure"
//	@Router			/v1/auth/register/initiate [post].
func (h *RegisterInitiateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterInitiateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.RegistrationService.InitiateRegistration(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrEmailAlreadyRegistered):
			httpx.WriteError(w, r, http.StatusConflict, "email is already registered")
		case errors.Is(err, service.ErrDeliveryFailed):
			httpx.WriteError(w, r, http.StatusInternalServerError, "failed to deliver verification email")
		default:
			log.Error("failed to initiate registration", "err", err)
			httpx.WriteError(w, r, http.StatusInternalServerError, "failed to initiate registration")
		}
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
}
