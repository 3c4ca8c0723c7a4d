package app_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litscan/litscan/internal/adapter/httpserver"
	"github.com/litscan/litscan/internal/app"
)

func TestParseOrigins(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{"https://rnacentral.org", []string{"https://rnacentral.org"}},
		{"https://a.org, https://b.org", []string{"https://a.org", "https://b.org"}},
		{" , ,", []string{"*"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, app.ParseOrigins(tc.in), "input %q", tc.in)
	}
}

func TestConsumerIP_ExplicitHost(t *testing.T) {
	assert.Equal(t, "10.0.0.5", app.ConsumerIP("10.0.0.5"))
}

func TestConsumerIP_WildcardResolves(t *testing.T) {
	ip := app.ConsumerIP("0.0.0.0")
	require.NotEmpty(t, ip)
	assert.NotEqual(t, "0.0.0.0", ip)
}

func TestSecurityHeadersOnHealthz(t *testing.T) {
	// The consumer router carries the same header wrapping as the producer's.
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	wrapped := httpserver.SecurityHeaders(h)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
