package gateway

import (
	"context"
	"iter"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

// RunFunc permite substituir o runner do ADK nos testes
type RunFunc func(ctx context.Context, userID, sessionID string, msg *genai.Content, cfg agent.RunConfig) iter.Seq2[*session.Event, error]

func (f RunFunc) Run(ctx context.Context, userID, sessionID string, msg *genai.Content, cfg agent.RunConfig) iter.Seq2[*session.Event, error] {
	return f(ctx, userID, sessionID, msg, cfg)
}

func NewADKAssistantWithRunner(run RunFunc, cfg Config) *ADKAssistant {
	return newADKAssistant(nil, run, cfg)
}

// RenderTurn executa o provider de instrução como o ADK faria em um turno
func RenderTurn(instruction string, now func() time.Time) (string, error) {
	return instructionProvider(instruction, now)(nil)
}
