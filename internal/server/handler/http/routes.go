package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/chatdemo/internal/middleware"
)

// NewRouter constructs the auth server handler.
//
// Routes:
//
//	POST /inside/app/user/login/V2      → authHandler.Login
//	POST /inside/app/sms/send/{phone}/  → authHandler.SendSMS
//
// Requests with a body must be JSON. Every request gets an id and one
// log line.
func NewRouter(authHandler *AuthHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)

	r.Route("/inside/app", func(r chi.Router) {
		r.Post("/user/login/V2", authHandler.Login)
		r.Post("/sms/send/{phone}/", authHandler.SendSMS)
	})

	return r
}
