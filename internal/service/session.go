package service

import "github.com/google/uuid"

// SessionResolver decide qual session id usar em uma requisição
type SessionResolver struct {
	newID func() string
}

// NewSessionResolver cria um resolver que gera UUIDs aleatórios
func NewSessionResolver() *SessionResolver {
	return &SessionResolver{newID: uuid.NewString}
}

// NewSessionResolverWith usa newID para gerar ids novos
func NewSessionResolverWith(newID func() string) *SessionResolver {
	return &SessionResolver{newID: newID}
}

// Resolve retorna o id enviado pelo cliente, sem validar o formato, ou um
// id novo quando o cliente não enviou nenhum.
func (r *SessionResolver) Resolve(clientSessionID string) string {
	if clientSessionID != "" {
		return clientSessionID
	}
	return r.newID()
}
