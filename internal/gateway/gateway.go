// Package gateway define o contrato com o agente de IA e o adaptador que
// o implementa usando o ADK, o Gemini e ferramentas MCP.
package gateway

import (
	"context"
	"fmt"
)

// Assistant responde a mensagem do usuário dentro da conversa identificada
// por sessionID. A memória da conversa e as chamadas de ferramentas ficam
// por conta da implementação.
type Assistant interface {
	Chat(ctx context.Context, sessionID, message string) (string, error)
}

// AssistantFunc adapta uma função ao Assistant
type AssistantFunc func(ctx context.Context, sessionID, message string) (string, error)

// Chat chama f
func (f AssistantFunc) Chat(ctx context.Context, sessionID, message string) (string, error) {
	return f(ctx, sessionID, message)
}

// Error representa uma falha do agente (modelo, ferramenta ou rede)
type Error struct {
	Op        string
	SessionID string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
