package converter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"

	"github.com/maximbilan/esmify/internal/cache"
	"github.com/maximbilan/esmify/internal/config"
	"github.com/maximbilan/esmify/internal/prompt"
	"github.com/maximbilan/esmify/internal/provider"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider:              provider.NameGemini,
		APIKey:                "AIza-test-key",
		Model:                 config.DefaultModel,
		Temperature:           config.DefaultTemperature,
		ThinkingBudget:        config.DefaultThinkingBudget,
		InlineTransportErrors: true,
	}
}

// newTestClient wires a client to mock; factoryCalls counts provider constructions
func newTestClient(t *testing.T, cfg *config.Config, mock *provider.MockProvider, opts ...Option) (*Client, *int) {
	t.Helper()
	calls := 0
	factory := func(ctx context.Context, name, apiKey string) (provider.Provider, error) {
		calls++
		return mock, nil
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithProviderFactory(factory)}, opts...)
	return New(cfg, opts...), &calls
}

func clearEnvKeys(t *testing.T) {
	t.Helper()
	for _, name := range config.EnvAPIKeys {
		t.Setenv(name, "")
	}
}

func TestConvertSendsFixedRequest(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.SetDefaultResponse("import x from 'a';")
	client, _ := newTestClient(t, testConfig(), mock)

	got, err := client.Convert(context.Background(), "const x = require('a');")
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got != "import x from 'a';" {
		t.Errorf("Convert() = %q", got)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want exactly 1", len(reqs))
	}
	req := reqs[0]
	if req.Model != "gemini-3-pro-preview" {
		t.Errorf("Model = %q", req.Model)
	}
	if req.Content != "const x = require('a');" {
		t.Errorf("Content = %q, want raw source", req.Content)
	}
	if req.SystemInstruction != prompt.SystemInstruction() {
		t.Error("SystemInstruction is not the migration instruction")
	}
	if req.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", req.Temperature)
	}
	if req.ThinkingBudget != 4096 {
		t.Errorf("ThinkingBudget = %v, want 4096", req.ThinkingBudget)
	}
}

func TestConvertMissingCredential(t *testing.T) {
	clearEnvKeys(t)
	cfg := testConfig()
	cfg.APIKey = ""

	for _, source := range []string{"foo()", "const x = require('a');", ""} {
		mock := provider.NewMockProvider()
		client, factoryCalls := newTestClient(t, cfg, mock)

		_, err := client.Convert(context.Background(), source)

		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("Convert(%q) error = %v, want *ConfigurationError", source, err)
		}
		if *factoryCalls != 0 || mock.Calls() != 0 {
			t.Errorf("Convert(%q) reached the provider without a credential", source)
		}
		if msg := UserMessage(err); !strings.Contains(msg, "API_KEY") {
			t.Errorf("UserMessage() = %q, want setup instructions", msg)
		}
	}
}

func TestConvertCredentialFromEnvironment(t *testing.T) {
	clearEnvKeys(t)
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg := testConfig()
	cfg.APIKey = ""

	var gotKey string
	mock := provider.NewMockProvider()
	mock.SetDefaultResponse("ok")
	client := New(cfg, WithProviderFactory(func(ctx context.Context, name, apiKey string) (provider.Provider, error) {
		gotKey = apiKey
		return mock, nil
	}))

	if _, err := client.Convert(context.Background(), "x"); err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if gotKey != "from-env" {
		t.Errorf("provider got key %q, want from-env", gotKey)
	}
}

func TestConvertProviderFactoryFailure(t *testing.T) {
	client := New(testConfig(),
		WithLogger(zaptest.NewLogger(t)),
		WithProviderFactory(func(ctx context.Context, name, apiKey string) (provider.Provider, error) {
			return nil, fmt.Errorf("unknown provider %q", name)
		}))

	_, err := client.Convert(context.Background(), "x")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Convert() error = %v, want *ConfigurationError", err)
	}
	if !strings.Contains(UserMessage(err), "unknown provider") {
		t.Errorf("UserMessage() = %q, want cause", UserMessage(err))
	}
}

func TestConvertClassifiesFailures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantErr     error
		wantMessage string
	}{
		{
			name:        "401 in message",
			err:         errors.New("Error 401, Message: API key not valid"),
			wantErr:     ErrAuthentication,
			wantMessage: "Authentication Failed: Your API Key is invalid or expired.",
		},
		{
			name:        "403 status",
			err:         &provider.StatusError{Provider: "gemini", Code: 403, Err: errors.New("permission denied")},
			wantErr:     ErrAuthentication,
			wantMessage: "Authentication Failed: Your API Key is invalid or expired.",
		},
		{
			name:        "429 in message",
			err:         errors.New("Error 429, Message: Resource has been exhausted"),
			wantErr:     ErrRateLimited,
			wantMessage: "Rate Limit Exceeded: The system is under heavy load. Please wait a moment.",
		},
		{
			name:        "429 status",
			err:         &provider.StatusError{Provider: "openai", Code: 429, Err: errors.New("slow down")},
			wantErr:     ErrRateLimited,
			wantMessage: "Rate Limit Exceeded: The system is under heavy load. Please wait a moment.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := provider.NewMockProvider()
			mock.SetError(tt.err)
			client, _ := newTestClient(t, testConfig(), mock)

			out, err := client.Convert(context.Background(), "x")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if out != "" {
				t.Errorf("Convert() output = %q, want empty", out)
			}
			if got := UserMessage(err); got != tt.wantMessage {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestConvertInlinesUnclassifiedErrors(t *testing.T) {
	mock := provider.NewMockProvider()
	mock.SetError(errors.New("dial tcp: connection refused"))
	client, _ := newTestClient(t, testConfig(), mock)

	out, err := client.Convert(context.Background(), "x")
	if err != nil {
		t.Fatalf("Convert() error = %v, want nil (inline)", err)
	}
	want := "// SYSTEM ERROR: dial tcp: connection refused\n// Please check your network or API quota."
	if out != want {
		t.Errorf("Convert() = %q, want %q", out, want)
	}
	if !IsInlineError(out) {
		t.Error("IsInlineError() = false for inline output")
	}
}

func TestConvertTransportErrorWhenInlineDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.InlineTransportErrors = false
	mock := provider.NewMockProvider()
	mock.SetError(&provider.StatusError{Provider: "gemini", Code: 500, Err: errors.New("internal")})
	client, _ := newTestClient(t, cfg, mock)

	_, err := client.Convert(context.Background(), "x")
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("Convert() error = %v, want *TransportError", err)
	}
	if !strings.HasPrefix(UserMessage(err), "Request Failed:") {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}

func TestConvertEmptyResponse(t *testing.T) {
	for _, reply := range []string{"", "  \n\t"} {
		mock := provider.NewMockProvider()
		mock.SetDefaultResponse(reply)
		client, _ := newTestClient(t, testConfig(), mock)

		_, err := client.Convert(context.Background(), "x")
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("Convert() with reply %q error = %v, want ErrEmptyResponse", reply, err)
		}
		if got := UserMessage(err); got != "The model returned an empty response. Please try again." {
			t.Errorf("UserMessage() = %q", got)
		}
	}
}

func TestConvertTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeoutSeconds = 1
	cfg.InlineTransportErrors = false

	slow := &slowProvider{delay: 5 * time.Second}
	client := New(cfg, WithProviderFactory(func(ctx context.Context, name, apiKey string) (provider.Provider, error) {
		return slow, nil
	}))

	_, err := client.Convert(context.Background(), "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Convert() error = %v, want deadline exceeded", err)
	}
}

func TestConvertUsesCache(t *testing.T) {
	cc, err := cache.NewWithFs(afero.NewMemMapFs(), "/cache", 7)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	mock := provider.NewMockProvider()
	mock.SetDefaultResponse("import x from 'a';")
	client, _ := newTestClient(t, testConfig(), mock, WithCache(cc))

	for i := 0; i < 3; i++ {
		got, err := client.Convert(context.Background(), "const x = require('a');")
		if err != nil {
			t.Fatalf("Convert() #%d error = %v", i+1, err)
		}
		if got != "import x from 'a';" {
			t.Errorf("Convert() #%d = %q", i+1, got)
		}
	}
	if mock.Calls() != 1 {
		t.Errorf("provider calls = %d, want 1 (rest from cache)", mock.Calls())
	}
}

func TestConvertDoesNotCacheFailures(t *testing.T) {
	cc, _ := cache.NewWithFs(afero.NewMemMapFs(), "/cache", 7)
	mock := provider.NewMockProvider()
	mock.SetError(errors.New("connection reset"))
	client, _ := newTestClient(t, testConfig(), mock, WithCache(cc))

	_, _ = client.Convert(context.Background(), "x")
	_, _ = client.Convert(context.Background(), "x")
	if mock.Calls() != 2 {
		t.Errorf("provider calls = %d, want 2", mock.Calls())
	}
}

func TestInlineErrorMultiline(t *testing.T) {
	got := InlineError(errors.New("line one\nline two"))
	for _, line := range strings.Split(got, "\n") {
		if !strings.HasPrefix(line, "//") {
			t.Errorf("InlineError() line %q is not commented", line)
		}
	}
}

type slowProvider struct {
	delay time.Duration
}

func (s *slowProvider) Name() string { return "slow" }

func (s *slowProvider) Generate(ctx context.Context, req provider.Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.delay):
		return "late", nil
	}
}
