package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/genai"
)

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// BreakerConfig configures the circuit breaker around the completion call.
type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// Breaker wraps completion calls with a circuit breaker. A nil *Breaker
// runs calls directly.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[string]
}

// NewBreaker returns nil when the breaker is disabled.
func NewBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[string](settings)}
}

// Execute runs fn under the breaker.
func (b *Breaker) Execute(fn func() (string, error)) (string, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// State reports the breaker state: closed, half-open, open, or disabled.
func (b *Breaker) State() string {
	if b == nil || b.cb == nil {
		return "disabled"
	}
	return b.cb.State().String()
}

// GeminiConfig configures the Gemini completer.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	Timeout     time.Duration
	// BaseURL overrides the API endpoint; empty means the SDK default.
	BaseURL string
}

// Gemini completes prompts with the Google Gen AI SDK.
type Gemini struct {
	client  *genai.Client
	cfg     GeminiConfig
	breaker *Breaker
}

var _ Completer = (*Gemini)(nil)

// NewGemini creates the client. breaker may be nil.
func NewGemini(ctx context.Context, cfg GeminiConfig, breaker *Breaker) (*Gemini, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("agent: creating gemini client: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Gemini{client: client, cfg: cfg, breaker: breaker}, nil
}

// Complete sends prompt as a single user turn and returns the text parts
// of the first candidate. An empty string with a nil error means the model
// produced nothing.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens: g.cfg.MaxTokens,
	}

	return g.breaker.Execute(func() (string, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), genCfg)
		if err != nil {
			return "", fmt.Errorf("agent: gemini generate content: %w", err)
		}
		return resp.Text(), nil
	})
}
