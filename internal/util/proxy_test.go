package util

import (
	"net/http"
	"net/url"
	"testing"
)

func TestNewProxyFunc_UsesConfiguredProxy(t *testing.T) {
	fn := NewProxyFunc("http://proxy:3128", "http://secure-proxy:3129", "localhost, .internal")

	tests := []struct {
		target string
		want   string
	}{
		{"http://api.example.com/v1", "http://proxy:3128"},
		{"https://api.openai.com/v1", "http://secure-proxy:3129"},
		{"http://localhost:11434/v1", ""},
		{"https://llm.corp.internal/v1", ""},
	}

	for _, tt := range tests {
		u, _ := url.Parse(tt.target)
		got, err := fn(&http.Request{URL: u})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.target, err)
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("%s: expected direct connection, got %s", tt.target, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want {
			t.Errorf("%s: expected %s, got %v", tt.target, tt.want, got)
		}
	}
}

func TestBypass(t *testing.T) {
	if !Bypass("anything.example", []string{"*"}) {
		t.Error("Expected wildcard to bypass")
	}
	if Bypass("notinternal", []string{"internal"}) {
		t.Error("Expected suffix match to require a dot boundary")
	}
	if !Bypass("LOCALHOST", []string{"localhost"}) {
		t.Error("Expected case-insensitive match")
	}
}
