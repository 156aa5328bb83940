package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"investbot/pkg/apperrors"
	"investbot/pkg/bot"
	"investbot/pkg/logger"
	"investbot/pkg/otp"
	"investbot/service"
)

// Server exposes the per-role webhook endpoints and the admin surface.
type Server struct {
	registry *bot.Registry
	router   *bot.Router
	otp      *otp.Manager
	svc      service.IServiceManager
	log      logger.ILogger
}

func NewServer(registry *bot.Registry, router *bot.Router, otpMgr *otp.Manager, svc service.IServiceManager, log logger.ILogger) *Server {
	return &Server{
		registry: registry,
		router:   router,
		otp:      otpMgr,
		svc:      svc,
		log:      log,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Bot-Signature"},
	}))

	r.Post("/webhook/{role}", s.handleWebhook)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/webhooks/setup", s.handleSetupWebhooks)
			r.Post("/webhooks/{role}", s.handleSetWebhook)
			r.Delete("/webhooks/{role}", s.handleRemoveWebhook)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/users/{id}/interactions", s.handleUserInteractions)
			r.Post("/broadcast", s.handleBroadcast)
			r.Post("/test-message", s.handleTestMessage)
			r.Get("/ai-settings", s.handleGetAISettings)
			r.Put("/ai-settings", s.handleSetAISettings)
			r.Post("/ai-test", s.handleTestAI)
		})
		r.Route("/otp", func(r chi.Router) {
			r.Post("/issue", s.handleOTPIssue)
			r.Post("/verify", s.handleOTPVerify)
		})
	})

	return r
}

func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.log.Info("http server listening", logger.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrState):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrExternalService):
		status = http.StatusBadGateway
	case errors.Is(err, apperrors.ErrOTPExpired), errors.Is(err, apperrors.ErrOTPMismatch):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, envelope{Success: false, Error: err.Error()})
}
