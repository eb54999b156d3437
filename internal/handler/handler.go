package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vitormoschetta/anyflix-support/internal/gateway"
	"github.com/vitormoschetta/anyflix-support/internal/model"
	"github.com/vitormoschetta/anyflix-support/internal/service"
	"github.com/vitormoschetta/anyflix-support/internal/worker"
)

const maxBodyBytes = 1 << 20

// ChatService é o que o handler de chat precisa do serviço
type ChatService interface {
	Handle(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error)
}

// Info descreve o serviço no endpoint raiz
type Info struct {
	Service   string
	AgentName string
	BaseURL   string
}

// Handler contém as dependências necessárias para os handlers HTTP
type Handler struct {
	chat   ChatService
	tools  gateway.ToolCatalog
	info   Info
	logger zerolog.Logger
}

// NewHandler cria uma nova instância do Handler. tools pode ser nil.
func NewHandler(chat ChatService, tools gateway.ToolCatalog, info Info, logger zerolog.Logger) *Handler {
	if info.Service == "" {
		info.Service = "Anyflix Support Chat"
	}
	if info.BaseURL == "" {
		info.BaseURL = "http://localhost:8080"
	}
	return &Handler{
		chat:   chat,
		tools:  tools,
		info:   info,
		logger: logger.With().Str("component", "handler").Logger(),
	}
}

// HandleRoot retorna informações sobre o serviço. Navegadores são
// redirecionados para a interface de chat.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/ui/", http.StatusFound)
		return
	}

	base := strings.TrimRight(h.info.BaseURL, "/")
	response := map[string]any{
		"service": h.info.Service,
		"endpoints": map[string]any{
			"chat": map[string]any{
				"url":         base + "/api/chat",
				"method":      "POST",
				"description": "Send a message to the support assistant",
				"example": map[string]string{
					"message":   "What plan am I on?",
					"sessionId": "optional-session-id",
				},
			},
			"health": map[string]any{
				"url":         base + "/health",
				"method":      "GET",
				"description": "Health check endpoint",
			},
			"tools": map[string]any{
				"url":         base + "/api/tools",
				"method":      "GET",
				"description": "List the tools available to the assistant",
			},
			"metrics": map[string]any{
				"url":         base + "/metrics",
				"method":      "GET",
				"description": "Prometheus metrics",
			},
			"ui": map[string]any{
				"url":         base + "/ui/",
				"method":      "GET",
				"description": "Browser chat client",
			},
		},
		"agent": map[string]string{
			"name":        h.info.AgentName,
			"description": "Customer support agent for Anyflix subscriptions and plans",
		},
	}

	h.writeJSON(w, r, http.StatusOK, response)
}

// HandleHealth retorna o status de saúde do servidor
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		h.logger.Warn().Err(err).Msg("failed to write health response")
	}
}

// HandleTools retorna as ferramentas MCP disponíveis para o agente
func (h *Handler) HandleTools(w http.ResponseWriter, r *http.Request) {
	if h.tools == nil {
		h.writeJSON(w, r, http.StatusOK, model.ToolsResponse{Tools: []model.ToolInfo{}})
		return
	}

	tools, err := h.tools.ListTools(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Str("source", h.tools.Source()).Msg("failed to list tools")
		h.writeJSON(w, r, http.StatusBadGateway, model.ErrorResponse{Error: "Failed to list tools"})
		return
	}

	h.writeJSON(w, r, http.StatusOK, model.ToolsResponse{
		Source: h.tools.Source(),
		Tools:  tools,
	})
}

// HandleChat processa mensagens enviadas ao agente. Falhas do agente
// voltam com status 200 e uma mensagem de desculpas.
func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	// o WriteTimeout do servidor não limita a espera pelo agente
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn().Err(err).Msg("failed to clear write deadline")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	// Parse do JSON
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("error parsing JSON")
		h.writeJSON(w, r, http.StatusBadRequest, model.ErrorResponse{Error: "Invalid JSON format"})
		return
	}

	resp, err := h.chat.Handle(r.Context(), req)
	switch {
	case err == nil:
		h.writeJSON(w, r, http.StatusOK, resp)
	case errors.Is(err, service.ErrEmptyMessage):
		h.writeJSON(w, r, http.StatusBadRequest, model.ErrorResponse{Error: "Message is required"})
	case errors.Is(err, worker.ErrPoolClosed):
		h.writeJSON(w, r, http.StatusServiceUnavailable, model.ErrorResponse{Error: "Server is shutting down"})
	case r.Context().Err() != nil:
		// cliente desconectou, não há para quem responder
		h.logger.Debug().Str("request_id", middleware.GetReqID(r.Context())).Msg("client went away")
	default:
		h.logger.Error().Err(err).Msg("unexpected chat error")
		h.writeJSON(w, r, http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("failed to write response")
	}
}
