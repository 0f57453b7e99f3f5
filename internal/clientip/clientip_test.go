package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{name: "remote addr with port", remoteAddr: "10.0.0.7:51234", expected: "10.0.0.7"},
		{name: "ipv6 remote addr", remoteAddr: "[::1]:8080", expected: "::1"},
		{name: "remote addr without port passes through", remoteAddr: "garbage", expected: "garbage"},
		{name: "single forwarded hop", remoteAddr: "10.0.0.1:1", forwarded: "203.0.113.5", expected: "203.0.113.5"},
		{name: "forwarded chain takes first hop", remoteAddr: "10.0.0.1:1", forwarded: "203.0.113.5, 10.1.1.1, 10.2.2.2", expected: "203.0.113.5"},
		{name: "malformed forwarded value is not validated", remoteAddr: "10.0.0.1:1", forwarded: "not-an-ip,1.2.3.4", expected: "not-an-ip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/movie/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set(ForwardedForHeader, tt.forwarded)
			}
			assert.Equal(t, tt.expected, Resolve(r))
		})
	}
}
