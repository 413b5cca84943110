package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/growthops/adpulse/internal/common"
	"github.com/growthops/adpulse/internal/interfaces"
)

type emptyKVStorage struct{}

func (emptyKVStorage) Get(ctx context.Context, key string) (string, error) {
	return "", interfaces.ErrKeyNotFound
}
func (emptyKVStorage) Set(ctx context.Context, key, value, description string) error { return nil }
func (emptyKVStorage) Delete(ctx context.Context, key string) error                  { return nil }
func (emptyKVStorage) GetAll(ctx context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"ADPULSE_CLAUDE_API_KEY", "ANTHROPIC_API_KEY", "ADPULSE_GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(name, "")
	}
}

func newUnconfiguredRegistry(defaultProvider string) *Registry {
	return NewRegistry(
		&common.ClaudeConfig{Model: "claude-3-5-sonnet-20240620"},
		&common.GeminiConfig{Model: "gemini-1.5-pro"},
		&common.LLMConfig{DefaultProvider: defaultProvider},
		emptyKVStorage{},
		arbor.NewLogger(),
	)
}

func TestRegistryUnknownIdentity(t *testing.T) {
	clearCredentialEnv(t)
	registry := newUnconfiguredRegistry("claude")

	_, err := registry.Get(context.Background(), Identity("gpt4"))
	if !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestRegistryUnconfiguredProviderIsUnavailable(t *testing.T) {
	clearCredentialEnv(t)
	registry := newUnconfiguredRegistry("claude")

	_, err := registry.Get(context.Background(), IdentityClaude)
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	// Generation on an unconfigured provider fails the same way
	// without attempting a network call.
	_, err = registry.Generate(context.Background(), IdentityClaude, &GenerateRequest{Prompt: "hi"})
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error from Generate, got %v", err)
	}
}

func TestRegistryAvailableEmptyWithoutCredentials(t *testing.T) {
	clearCredentialEnv(t)
	registry := newUnconfiguredRegistry("claude")

	if available := registry.Available(context.Background()); len(available) != 0 {
		t.Fatalf("expected no available providers, got %v", available)
	}
}

func TestRegistryMemoizesProviders(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	registry := newUnconfiguredRegistry("claude")

	first, err := registry.Get(context.Background(), IdentityClaude)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	second, err := registry.Get(context.Background(), IdentityClaude)
	if err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}
	if first != second {
		t.Error("expected the same provider instance on repeated Get")
	}
	if first.DefaultModel() != "claude-3-5-sonnet-20240620" {
		t.Errorf("DefaultModel = %q", first.DefaultModel())
	}
}

func TestRegistryDefaultIdentity(t *testing.T) {
	tests := []struct {
		configured string
		want       Identity
	}{
		{"claude", IdentityClaude},
		{"gemini", IdentityGemini},
		{"", IdentityClaude},
		{"gpt4", IdentityClaude},
	}
	for _, tt := range tests {
		registry := newUnconfiguredRegistry(tt.configured)
		if got := registry.DefaultIdentity(); got != tt.want {
			t.Errorf("DefaultIdentity with %q = %s, want %s", tt.configured, got, tt.want)
		}
	}
}

func TestIsModelRejected(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("model claude-9 not found"), true},
		{errors.New("404 model_not_found: no such model"), true},
		{errors.New("invalid model identifier"), true},
		{errors.New("rate limit exceeded"), false},
		{errors.New("invalid api key"), false},
	}
	for _, tt := range tests {
		if got := isModelRejected(tt.err); got != tt.want {
			t.Errorf("isModelRejected(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
