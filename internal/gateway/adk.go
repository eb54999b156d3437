package gateway

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/mcptoolset"
	"google.golang.org/genai"
)

// agentRunner é o subconjunto de *runner.Runner usado pelo adaptador
type agentRunner interface {
	Run(ctx context.Context, userID, sessionID string, msg *genai.Content, cfg agent.RunConfig) iter.Seq2[*session.Event, error]
}

// Config contém tudo que o agente precisa, definido na construção
type Config struct {
	AppName     string
	UserID      string
	AgentName   string
	Description string
	Instruction string

	Model          model.LLM
	Toolsets       []tool.Toolset
	SessionService session.Service

	Logger zerolog.Logger
	Now    func() time.Time
}

// ADKAssistant implementa Assistant com um LLMAgent do ADK. A memória de
// cada conversa fica no session.Service, indexada pelo session id.
type ADKAssistant struct {
	agent    agent.Agent
	runner   agentRunner
	sessions session.Service
	appName  string
	userID   string
	logger   zerolog.Logger
}

var _ Assistant = (*ADKAssistant)(nil)

// NewADKAssistant cria o agente e o runner a partir da configuração
func NewADKAssistant(cfg Config) (*ADKAssistant, error) {
	cfg = withDefaults(cfg)
	if cfg.Model == nil {
		return nil, errors.New("model is required")
	}

	a, err := llmagent.New(llmagent.Config{
		Name:                cfg.AgentName,
		Model:               cfg.Model,
		Description:         cfg.Description,
		InstructionProvider: instructionProvider(cfg.Instruction, cfg.Now),
		Toolsets:            cfg.Toolsets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	r, err := runner.New(runner.Config{
		AppName:        cfg.AppName,
		Agent:          a,
		SessionService: cfg.SessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	return newADKAssistant(a, r, cfg), nil
}

func newADKAssistant(a agent.Agent, r agentRunner, cfg Config) *ADKAssistant {
	cfg = withDefaults(cfg)
	return &ADKAssistant{
		agent:    a,
		runner:   r,
		sessions: cfg.SessionService,
		appName:  cfg.AppName,
		userID:   cfg.UserID,
		logger:   cfg.Logger.With().Str("component", "gateway").Logger(),
	}
}

// instructionProvider renderiza a instrução a cada turno, então uma conversa
// que passa da meia-noite recebe a data nova.
func instructionProvider(instruction string, now func() time.Time) llmagent.InstructionProvider {
	return func(agent.ReadonlyContext) (string, error) {
		return RenderInstruction(instruction, now()), nil
	}
}

func withDefaults(cfg Config) Config {
	if cfg.AppName == "" {
		cfg.AppName = "anyflix-support"
	}
	if cfg.UserID == "" {
		cfg.UserID = "default-user"
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "anyflix_support_agent"
	}
	if cfg.Description == "" {
		cfg.Description = "Customer support agent for Anyflix subscriptions and plans."
	}
	if cfg.Instruction == "" {
		cfg.Instruction = DefaultInstruction
	}
	if cfg.SessionService == nil {
		cfg.SessionService = session.InMemoryService()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// Agent retorna o agente do ADK, usado também pelo modo console
func (a *ADKAssistant) Agent() agent.Agent {
	return a.agent
}

// Chat executa um turno da conversa sessionID
func (a *ADKAssistant) Chat(ctx context.Context, sessionID, message string) (string, error) {
	if err := a.ensureSession(ctx, sessionID); err != nil {
		return "", &Error{Op: "create session", SessionID: sessionID, Err: err}
	}

	userContent := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: message},
		},
	}

	var responseText strings.Builder
	events := 0
	for event, err := range a.runner.Run(ctx, a.userID, sessionID, userContent, agent.RunConfig{}) {
		if err != nil {
			return "", &Error{Op: "run agent", SessionID: sessionID, Err: err}
		}
		if event == nil || event.Content == nil {
			continue
		}
		events++
		for _, part := range event.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			responseText.WriteString(part.Text)
		}
	}

	reply := responseText.String()
	if reply == "" {
		a.logger.Warn().Str("session_id", sessionID).Int("events", events).Msg("agent returned no text")
		return EmptyReply, nil
	}
	return reply, nil
}

// ensureSession cria a sessão no session.Service na primeira mensagem
func (a *ADKAssistant) ensureSession(ctx context.Context, sessionID string) error {
	_, err := a.sessions.Get(ctx, &session.GetRequest{
		AppName:   a.appName,
		UserID:    a.userID,
		SessionID: sessionID,
	})
	if err == nil {
		return nil
	}

	_, err = a.sessions.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    a.userID,
		SessionID: sessionID,
	})
	// outra requisição pode ter criado a mesma sessão
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	if err == nil {
		a.logger.Debug().Str("session_id", sessionID).Msg("created agent session")
	}
	return nil
}

// ModelOptions descreve como conectar ao Gemini e ao servidor MCP
type ModelOptions struct {
	APIKey        string
	ModelName     string
	McpEndpoint   string
	McpAuthHeader string
	McpAuthToken  string
	HTTPTimeout   time.Duration
}

// Components reúne as dependências externas do agente
type Components struct {
	Model     model.LLM
	Toolset   tool.Toolset
	Transport mcp.Transport
}

// NewComponents cria o modelo Gemini e o toolset MCP autenticado
func NewComponents(ctx context.Context, opts ModelOptions, logger zerolog.Logger) (*Components, error) {
	if opts.McpEndpoint == "" {
		return nil, errors.New("MCP_ENDPOINT is not set")
	}
	if opts.HTTPTimeout == 0 {
		opts.HTTPTimeout = 30 * time.Second
	}

	llmModel, err := gemini.NewModel(ctx, opts.ModelName, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}

	if opts.McpAuthToken == "" {
		logger.Warn().Str("header", opts.McpAuthHeader).Msg("MCP auth token is not set - MCP requests may fail with 403")
	}

	httpClient := &http.Client{
		Transport: &AuthenticatedTransport{
			Base:   http.DefaultTransport,
			Header: opts.McpAuthHeader,
			Token:  opts.McpAuthToken,
			Logger: logger,
		},
		Timeout: opts.HTTPTimeout,
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   opts.McpEndpoint,
		HTTPClient: httpClient,
	}

	logger.Info().Str("endpoint", opts.McpEndpoint).Msg("connecting to MCP endpoint")

	toolset, err := mcptoolset.New(mcptoolset.Config{
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP tool set: %w", err)
	}

	logger.Info().Msg("MCP toolset initialized")

	return &Components{
		Model:     llmModel,
		Toolset:   toolset,
		Transport: transport,
	}, nil
}
