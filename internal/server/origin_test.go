package server

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "exact match", allowed: []string{"http://example.com"}, origin: "http://example.com", want: true},
		{name: "case insensitive", allowed: []string{"http://example.com"}, origin: "HTTP://Example.COM", want: true},
		{name: "configured with trailing path", allowed: []string{"http://example.com/chat"}, origin: "http://example.com", want: true},
		{name: "other host", allowed: []string{"http://example.com"}, origin: "http://evil.com", want: false},
		{name: "other port", allowed: []string{"http://example.com"}, origin: "http://example.com:8081", want: false},
		{name: "missing origin", allowed: []string{"http://example.com"}, origin: "", want: false},
		{name: "malformed origin", allowed: []string{"http://example.com"}, origin: "not-a-url", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://anything.example", want: true},
		{name: "wildcard still needs a valid origin", allowed: []string{"*"}, origin: "javascript:alert(1)", want: false},
		{name: "invalid configured entries ignored", allowed: []string{"nonsense", " "}, origin: "http://example.com", want: false},
		{name: "nothing configured", allowed: nil, origin: "http://example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newOriginPolicy(log, tt.allowed)
			r, err := http.NewRequest(http.MethodGet, "/ws", http.NoBody)
			require.NoError(t, err)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			require.Equal(t, tt.want, policy.checkOrigin(r))
		})
	}
}
