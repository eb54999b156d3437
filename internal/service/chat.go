package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vitormoschetta/anyflix-support/internal/gateway"
	"github.com/vitormoschetta/anyflix-support/internal/metrics"
	"github.com/vitormoschetta/anyflix-support/internal/model"
	"github.com/vitormoschetta/anyflix-support/internal/worker"
)

// ErrEmptyMessage indica uma mensagem vazia ou só com espaços
var ErrEmptyMessage = errors.New("message is required")

// ErrorPrefix inicia a mensagem enviada ao usuário quando o agente falha
const ErrorPrefix = "Sorry, I encountered an error: "

const previewLength = 50

// ChatService envia as mensagens ao agente e monta a resposta do chat
type ChatService struct {
	assistant gateway.Assistant
	pool      *worker.Pool
	resolver  *SessionResolver
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configura o ChatService
type Option func(*ChatService)

// WithResolver troca o gerador de session ids
func WithResolver(r *SessionResolver) Option {
	return func(s *ChatService) { s.resolver = r }
}

// WithMetrics registra as métricas do chat
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *ChatService) { s.metrics = m }
}

// WithClock troca a fonte de tempo do timestamp da resposta
func WithClock(now func() time.Time) Option {
	return func(s *ChatService) { s.now = now }
}

// NewChatService cria o serviço. As chamadas ao agente rodam em pool.
func NewChatService(assistant gateway.Assistant, pool *worker.Pool, logger zerolog.Logger, opts ...Option) *ChatService {
	s := &ChatService{
		assistant: assistant,
		pool:      pool,
		resolver:  NewSessionResolver(),
		logger:    logger.With().Str("component", "chat").Logger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit valida a requisição e agenda a chamada ao agente, retornando
// imediatamente. O Future nunca completa com falha do agente: nesse caso
// o resultado é uma resposta de desculpas com o mesmo session id.
func (s *ChatService) Submit(ctx context.Context, req model.ChatRequest) (*worker.Future[model.ChatResponse], string, error) {
	if strings.TrimSpace(req.Message) == "" {
		s.record(metrics.OutcomeRejected)
		return nil, "", ErrEmptyMessage
	}

	sessionID := s.resolver.Resolve(req.SessionID)
	s.logger.Info().Str("session_id", sessionID).Msg("processing chat request")

	// a chamada ao agente não é cancelada se o cliente desconectar
	callCtx := context.WithoutCancel(ctx)
	f, err := worker.Submit(s.pool, func() (model.ChatResponse, error) {
		return s.call(callCtx, sessionID, req.Message), nil
	})
	if err != nil {
		s.record(metrics.OutcomeRejected)
		return nil, sessionID, err
	}
	return f, sessionID, nil
}

// Handle executa Submit e espera o resultado. Só retorna erro para
// requisições inválidas, pool fechado ou ctx encerrado.
func (s *ChatService) Handle(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error) {
	f, sessionID, err := s.Submit(ctx, req)
	if err != nil {
		return model.ChatResponse{}, err
	}

	resp, err := f.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.Warn().Str("session_id", sessionID).Err(err).Msg("client stopped waiting for reply")
			return model.ChatResponse{}, err
		}
		// pânico dentro da tarefa
		s.logger.Error().Str("session_id", sessionID).Err(err).Msg("chat task failed")
		s.record(metrics.OutcomeDegraded)
		return s.degraded(sessionID, err), nil
	}
	return resp, nil
}

func (s *ChatService) call(ctx context.Context, sessionID, message string) model.ChatResponse {
	start := s.now()
	reply, err := s.assistant.Chat(ctx, sessionID, message)
	if s.metrics != nil {
		s.metrics.ObserveGateway(s.now().Sub(start))
	}

	if err != nil {
		s.logger.Error().Str("session_id", sessionID).Err(err).Msg("error in AI chat")
		s.record(metrics.OutcomeDegraded)
		return s.degraded(sessionID, err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("preview", Preview(reply, previewLength)).
		Msg("AI response")
	s.record(metrics.OutcomeSuccess)
	return s.response(reply, sessionID)
}

func (s *ChatService) degraded(sessionID string, err error) model.ChatResponse {
	return s.response(ErrorPrefix+err.Error(), sessionID)
}

func (s *ChatService) response(message, sessionID string) model.ChatResponse {
	return model.NewChatResponse(message, sessionID, s.now())
}

func (s *ChatService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordChat(outcome)
	}
}

// Preview corta text em n runas, adicionando "..." quando corta
func Preview(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}
