package gateway

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vitormoschetta/anyflix-support/internal/model"
)

// ToolCatalog lista as ferramentas disponíveis para o agente
type ToolCatalog interface {
	ListTools(ctx context.Context) ([]model.ToolInfo, error)
	Source() string
}

// MCPToolCatalog consulta o servidor MCP usado pelo toolset do agente
type MCPToolCatalog struct {
	transport mcp.Transport
	endpoint  string
	version   string
}

var _ ToolCatalog = (*MCPToolCatalog)(nil)

// NewMCPToolCatalog cria um catálogo para o transporte informado
func NewMCPToolCatalog(transport mcp.Transport, endpoint, version string) *MCPToolCatalog {
	if version == "" {
		version = "v1.0.0"
	}
	return &MCPToolCatalog{transport: transport, endpoint: endpoint, version: version}
}

// Source retorna o endpoint MCP
func (c *MCPToolCatalog) Source() string {
	return c.endpoint
}

// ListTools abre uma sessão MCP de curta duração e lista as ferramentas
func (c *MCPToolCatalog) ListTools(ctx context.Context) ([]model.ToolInfo, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "anyflix-support", Version: c.version}, nil)
	cs, err := client.Connect(ctx, c.transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to MCP server: %w", err)
	}
	defer cs.Close()

	res, err := cs.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return nil, fmt.Errorf("list MCP tools: %w", err)
	}

	tools := make([]model.ToolInfo, 0, len(res.Tools))
	for _, t := range res.Tools {
		if t == nil {
			continue
		}
		tools = append(tools, model.ToolInfo{Name: t.Name, Description: t.Description})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools, nil
}
