// Package converter sends source code to a hosted model together with the
// migration instruction and classifies what comes back.
package converter

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maximbilan/esmify/internal/cache"
	"github.com/maximbilan/esmify/internal/config"
	"github.com/maximbilan/esmify/internal/prompt"
	"github.com/maximbilan/esmify/internal/provider"
	"github.com/maximbilan/esmify/internal/ratelimit"
)

// ProviderFactory creates the provider for one request
type ProviderFactory func(ctx context.Context, name, apiKey string) (provider.Provider, error)

type Client struct {
	providerName   string
	model          string
	temperature    float32
	thinkingBudget int
	timeout        time.Duration
	inlineErrors   bool
	instruction    string

	credential  func() string
	newProvider ProviderFactory
	limiter     *ratelimit.Limiter
	cache       *cache.Cache
	logger      *zap.Logger
}

type Option func(*Client)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithCache(cc *cache.Cache) Option {
	return func(c *Client) { c.cache = cc }
}

func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithProviderFactory(f ProviderFactory) Option {
	return func(c *Client) { c.newProvider = f }
}

// WithCredential overrides how the API key is resolved
func WithCredential(f func() string) Option {
	return func(c *Client) { c.credential = f }
}

// New creates a client from config. Nothing is validated here; a missing
// credential surfaces from Convert.
func New(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		providerName:   cfg.Provider,
		model:          cfg.Model,
		temperature:    cfg.Temperature,
		thinkingBudget: cfg.ThinkingBudget,
		timeout:        time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		inlineErrors:   cfg.InlineTransportErrors,
		instruction:    prompt.SystemInstruction(),
		newProvider:    provider.New,
		logger:         zap.NewNop(),
	}
	if c.providerName == "" {
		c.providerName = provider.NameGemini
	}
	if c.model == "" {
		c.model = config.DefaultModel
	}
	apiKey := cfg.APIKey
	c.credential = func() string { return resolveAPIKey(apiKey) }

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveAPIKey prefers the configured key and falls back to the environment
func resolveAPIKey(configured string) string {
	if key := strings.TrimSpace(configured); key != "" {
		return key
	}
	for _, name := range config.EnvAPIKeys {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

// Convert sends source to the model and returns the raw reply.
//
// A missing credential or unusable provider yields *ConfigurationError before
// any request. Authentication and throttling failures yield ErrAuthentication
// and ErrRateLimited; an empty reply yields ErrEmptyResponse. Any other
// transport failure is returned as inline commented output with a nil error,
// unless inline errors are disabled, in which case it is a *TransportError.
// The caller is expected to pass non-empty source.
func (c *Client) Convert(ctx context.Context, source string) (string, error) {
	apiKey := c.credential()
	if apiKey == "" {
		c.logger.Warn("conversion refused: no API key configured")
		return "", &ConfigurationError{Reason: "API key is missing"}
	}

	cacheKey := ""
	if c.cache != nil {
		cacheKey = cache.Key(c.providerName, c.model, c.instruction,
			strconv.FormatFloat(float64(c.temperature), 'f', -1, 32),
			strconv.Itoa(c.thinkingBudget), source)
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.logger.Info("conversion served from cache", zap.Int("source_chars", len(source)))
			return cached, nil
		}
	}

	p, err := c.newProvider(ctx, c.providerName, apiKey)
	if err != nil {
		return "", &ConfigurationError{Reason: "cannot create " + c.providerName + " provider", Err: err}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.logger.Info("conversion request",
		zap.String("provider", p.Name()),
		zap.String("model", c.model),
		zap.Int("source_chars", len(source)),
		zap.Int("source_lines", strings.Count(source, "\n")+1),
	)
	start := time.Now()

	text, err := p.Generate(ctx, provider.Request{
		Model:             c.model,
		SystemInstruction: c.instruction,
		Content:           source,
		Temperature:       c.temperature,
		ThinkingBudget:    c.thinkingBudget,
	})
	if err != nil {
		c.logger.Error("generate content failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return c.classify(err)
	}

	if strings.TrimSpace(text) == "" {
		c.logger.Warn("model returned an empty response", zap.Duration("elapsed", time.Since(start)))
		return "", ErrEmptyResponse
	}

	c.logger.Info("conversion response",
		zap.Int("output_chars", len(text)),
		zap.Duration("elapsed", time.Since(start)),
	)

	if c.cache != nil {
		if err := c.cache.Set(cacheKey, source, text); err != nil {
			c.logger.Warn("cache write failed", zap.Error(err))
		}
	}

	return text, nil
}

func (c *Client) classify(err error) (string, error) {
	var statusErr *provider.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 401, 403:
			return "", errors.Join(ErrAuthentication, err)
		case 429:
			return "", errors.Join(ErrRateLimited, err)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "401"):
		return "", errors.Join(ErrAuthentication, err)
	case strings.Contains(msg, "429"):
		return "", errors.Join(ErrRateLimited, err)
	}

	if !c.inlineErrors {
		return "", &TransportError{Err: err}
	}
	return InlineError(err), nil
}
