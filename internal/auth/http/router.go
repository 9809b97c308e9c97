package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/twineproject/twine/internal/auth/service"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/pkg/httpx"
	"github.com/twineproject/twine/pkg/jwtx"
	"github.com/twineproject/twine/pkg/slogx"

	_ "github.com/twineproject/twine/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	RegistrationService *service.RegistrationService
	UserService         *service.UserService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Twine Authentication Service API
//	@version		0.1.0
//	@description	Email/password registration gated by an emailed one-time passcode, plus login issuing JWT bearer tokens.
//	@description
//	@description				Tokens are signed with EdDSA or ES256 and can be verified against the JWKS endpoint.
//
//	@contact.name				Twine Team
//	@contact.url				https://github.com/twineproject/twine
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	r.Mux.Handle("POST /v1/auth/register/initiate",
		&RegisterInitiateHandler{RegistrationService: r.RegistrationService})
	r.Mux.Handle("POST /v1/auth/register/complete",
		&RegisterCompleteHandler{RegistrationService: r.RegistrationService})
	r.Mux.Handle("POST /v1/auth/login",
		&LoginHandler{RegistrationService: r.RegistrationService})

	r.Mux.Handle("GET /.well-known/jwks.json", JWKSHandler(r.keys))
}

func (r *Router) registerUsers() {
	h := &UserInfoHandler{UserService: r.UserService}

	secured := httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier), // verify JWT (iss/exp)
	)

	r.Mux.Handle("GET /v1/userinfo", secured)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys))
}
