package relevance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscan/litscan/internal/adapter/relevance"
)

func TestClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a cleaned abstract", req["text"])
		_, _ = w.Write([]byte(`{"rna_related": true, "probability": 0.93}`))
	}))
	defer srv.Close()

	c := relevance.New(srv.URL)
	related, probability, err := c.Classify(context.Background(), "a cleaned abstract")
	require.NoError(t, err)
	assert.True(t, related)
	assert.Equal(t, 0.93, probability)
}

func TestClient_Classify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := relevance.New(srv.URL)
	_, _, err := c.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}
