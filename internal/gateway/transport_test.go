package gateway_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitormoschetta/anyflix-support/internal/gateway"
)

func TestAuthenticatedTransport(t *testing.T) {
	t.Parallel()
	got := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("X-Tiger-Token")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := &http.Client{Transport: &gateway.AuthenticatedTransport{
		Header: "X-Tiger-Token",
		Token:  "secret",
		Logger: zerolog.Nop(),
	}}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "secret", <-got)
	// a requisição original não é alterada
	assert.Empty(t, req.Header.Get("X-Tiger-Token"))
}

func TestAuthenticatedTransport_NoToken(t *testing.T) {
	t.Parallel()
	present := make(chan bool, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["X-Tiger-Token"]
		present <- ok
	}))
	defer srv.Close()

	client := &http.Client{Transport: &gateway.AuthenticatedTransport{Header: "X-Tiger-Token", Logger: zerolog.Nop()}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.False(t, <-present)
}
