// Package mock fornece dublês de teste baseados em campos de função.
package mock

import (
	"context"
	"sync"

	"github.com/vitormoschetta/anyflix-support/internal/gateway"
	"github.com/vitormoschetta/anyflix-support/internal/model"
)

var (
	_ gateway.Assistant   = (*Assistant)(nil)
	_ gateway.ToolCatalog = (*ToolCatalog)(nil)
)

// Call registra uma chamada ao Assistant
type Call struct {
	SessionID string
	Message   string
}

// Assistant é um dublê de gateway.Assistant. Defina ChatFn antes de usar.
type Assistant struct {
	ChatFn func(ctx context.Context, sessionID, message string) (string, error)

	mu    sync.Mutex
	calls []Call
}

// Chat registra a chamada e delega para ChatFn
func (a *Assistant) Chat(ctx context.Context, sessionID, message string) (string, error) {
	a.mu.Lock()
	a.calls = append(a.calls, Call{SessionID: sessionID, Message: message})
	a.mu.Unlock()
	return a.ChatFn(ctx, sessionID, message)
}

// Calls retorna uma cópia das chamadas recebidas
func (a *Assistant) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Call(nil), a.calls...)
}

// ToolCatalog é um dublê de gateway.ToolCatalog
type ToolCatalog struct {
	ListToolsFn func(ctx context.Context) ([]model.ToolInfo, error)
	SourceValue string
}

// ListTools delega para ListToolsFn
func (c *ToolCatalog) ListTools(ctx context.Context) ([]model.ToolInfo, error) {
	return c.ListToolsFn(ctx)
}

// Source retorna SourceValue
func (c *ToolCatalog) Source() string {
	return c.SourceValue
}
