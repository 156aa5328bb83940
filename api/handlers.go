package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"investbot/pkg/apperrors"
	"investbot/pkg/bot"
	"investbot/pkg/logger"
	"investbot/pkg/models"
)

const signatureHeader = "X-Bot-Signature"

func parseRole(r *http.Request) (models.BotRole, error) {
	role, err := models.ParseBotRole(chi.URLParam(r, "role"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return role, nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r)
	if err != nil {
		writeError(w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fmt.Errorf("%w: read body: %v", apperrors.ErrValidation, err))
		return
	}

	if err := s.registry.VerifySignature(body, r.Header.Get(signatureHeader), role); err != nil {
		s.log.Warning("webhook rejected", logger.String("role", string(role)), logger.Error(err))
		writeError(w, err)
		return
	}

	if err := s.router.RouteInboundUpdate(r.Context(), body, role); err != nil {
		// The platform retries on non-2xx; a malformed payload will not
		// get better, so acknowledge with a logged error.
		s.log.Error("update routing failed", logger.String("role", string(role)), logger.Error(err))
	}
	writeData(w, map[string]bool{"received": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var bots []*models.BotHealth
	for _, role := range s.registry.Roles() {
		h, err := s.registry.Health(r.Context(), role)
		if err != nil {
			continue
		}
		bots = append(bots, h)
	}
	writeData(w, bots)
}

func (s *Server) handleSetupWebhooks(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.svc.Admin().SetupAllWebhooks(r.Context()))
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var cfg bot.WebhookConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && err != io.EOF {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	if err := s.svc.Admin().SetWebhook(r.Context(), role, cfg); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"role": string(role), "status": models.BotStatusActive})
}

func (s *Server) handleRemoveWebhook(w http.ResponseWriter, r *http.Request) {
	role, err := parseRole(r)
	if err != nil {
		writeError(w, err)
		return
	}
	dropPending := r.URL.Query().Get("drop_pending") == "true"
	if err := s.svc.Admin().RemoveWebhook(r.Context(), role, dropPending); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"role": string(role), "status": models.BotStatusInactive})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := s.svc.Admin().GetDashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, dash)
}

func (s *Server) handleUserInteractions(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("%w: invalid user id", apperrors.ErrValidation))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := s.svc.Admin().GetUserInteractions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, recs)
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category models.NotificationCategory `json:"category"`
		Data     map[string]string           `json:"data"`
		Priority models.Priority             `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	result, err := s.svc.Admin().Broadcast(r.Context(), req.Category, req.Data, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, result)
}

func (s *Server) handleTestMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role   string `json:"role"`
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	role, err := models.ParseBotRole(req.Role)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", apperrors.ErrValidation, err))
		return
	}
	if err := s.svc.Admin().SendTestMessage(r.Context(), role, req.ChatID, req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]bool{"sent": true})
}

func (s *Server) handleGetAISettings(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.svc.Admin().GetAISettings(r.Context()))
}

func (s *Server) handleSetAISettings(w http.ResponseWriter, r *http.Request) {
	var settings models.AISettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	if err := s.svc.Admin().SetAISettings(r.Context(), settings); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, settings)
}

func (s *Server) handleTestAI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	writeData(w, s.svc.Admin().TestAIResponse(r.Context(), req.Message))
}

func (s *Server) handleOTPIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  int64             `json:"user_id"`
		Purpose models.OTPPurpose `json:"purpose"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	challengeID, err := s.otp.Issue(r.Context(), req.UserID, req.Purpose)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]string{"challenge_id": challengeID})
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ChallengeID string `json:"challenge_id"`
		Code        string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: decode body: %v", apperrors.ErrValidation, err))
		return
	}
	ch, err := s.otp.Verify(r.Context(), req.ChallengeID, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, map[string]interface{}{
		"user_id": ch.UserID,
		"purpose": ch.Purpose,
	})
}
