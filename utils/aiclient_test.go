package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEmailResolvesKeyPerRequest(t *testing.T) {
	var auths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auths = append(auths, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"subject":"s","html":"<p>h</p>"}`)
	}))
	defer srv.Close()

	key := "first-key"
	client := NewHTTPAIClient(srv.URL, func() string { return key })

	resp, err := client.GenerateEmail(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "s", resp.Subject)

	// A key rotated after construction reaches the very next request
	key = "second-key"
	_, err = client.GenerateEmail(context.Background(), GenerateRequest{Prompt: "p"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first-key", "Bearer second-key"}, auths)
}

func TestGenerateEmailRequiresEndpoint(t *testing.T) {
	client := NewHTTPAIClient("", func() string { return "k" })
	_, err := client.GenerateEmail(context.Background(), GenerateRequest{})
	assert.Error(t, err)
}

func TestGenerateEmailSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":"model overloaded"}`)
	}))
	defer srv.Close()

	client := NewHTTPAIClient(srv.URL, nil)
	_, err := client.GenerateEmail(context.Background(), GenerateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}
