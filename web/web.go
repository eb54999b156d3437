// Package web embute o cliente de chat servido em /ui/.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// StorageKey é a chave do localStorage onde o cliente guarda o session id
const StorageKey = "chatSessionId"

// Static retorna os arquivos do cliente com a raiz em static/
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
