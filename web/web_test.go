package web_test

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitormoschetta/anyflix-support/web"
)

func TestStatic_Files(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"index.html", "chat.js", "style.css"} {
		_, err := fs.Stat(web.Static(), name)
		assert.NoError(t, err, name)
	}
}

func TestStatic_ClientUsesStorageKey(t *testing.T) {
	t.Parallel()
	js, err := fs.ReadFile(web.Static(), "chat.js")
	require.NoError(t, err)
	assert.Contains(t, string(js), "'"+web.StorageKey+"'")
	assert.Contains(t, string(js), "'/api/chat'")
}
