package model

import "time"

// ChatRequest representa a requisição para o endpoint de chat
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResponse representa a resposta do endpoint de chat
type ChatResponse struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatResponse cria uma resposta com o timestamp em UTC
func NewChatResponse(message, sessionID string, at time.Time) ChatResponse {
	return ChatResponse{
		Message:   message,
		SessionID: sessionID,
		Timestamp: at.UTC(),
	}
}

// ErrorResponse é retornada com status 4xx, antes de chegar ao agente
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToolInfo descreve uma ferramenta disponível para o agente
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ToolsResponse representa a resposta do endpoint de ferramentas
type ToolsResponse struct {
	Source string     `json:"source"`
	Tools  []ToolInfo `json:"tools"`
}
