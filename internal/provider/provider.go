package provider

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted in config
const (
	NameGemini    = "gemini"
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
)

// Provider defines the interface for hosted models (Gemini, OpenAI, Anthropic)
type Provider interface {
	// Generate sends one request and returns the text of the reply
	Generate(ctx context.Context, req Request) (string, error)

	// Name identifies the provider in logs and cache keys
	Name() string
}

// Request is a single generate-content call
type Request struct {
	Model             string
	SystemInstruction string
	Content           string
	Temperature       float32
	// ThinkingBudget is a reasoning-token hint; 0 leaves the provider default
	ThinkingBudget int
}

// StatusError carries the HTTP status a provider reported for a failed call
type StatusError struct {
	Provider string
	Code     int
	Err      error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %v", e.Provider, e.Code, e.Err)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// New creates the provider registered under name
func New(ctx context.Context, name, apiKey string) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameGemini, "":
		return NewGeminiProvider(ctx, apiKey)
	case NameOpenAI:
		return NewOpenAIProvider(apiKey)
	case NameAnthropic:
		return NewAnthropicProvider(apiKey)
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s, %s or %s)", name, NameGemini, NameOpenAI, NameAnthropic)
	}
}
