package gateway

import (
	"net/http"

	"github.com/rs/zerolog"
)

// AuthenticatedTransport adiciona o header de autenticação às requisições
// feitas ao servidor MCP
type AuthenticatedTransport struct {
	Base   http.RoundTripper
	Header string
	Token  string
	Logger zerolog.Logger
}

func (t *AuthenticatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clonar a requisição para não modificar a original
	reqCopy := req.Clone(req.Context())

	if t.Token != "" && t.Header != "" {
		reqCopy.Header.Set(t.Header, t.Token)
	}

	t.Logger.Debug().
		Str("method", reqCopy.Method).
		Str("url", reqCopy.URL.String()).
		Bool("authenticated", t.Token != "").
		Msg("mcp request")

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(reqCopy)
}
