// Package llm provides the tiered inference client used by the learning and
// scoring pipelines, built on langchaingo.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/curiolabs/curio-go/internal/config"
	"github.com/curiolabs/curio-go/internal/metrics"
)

// Tier selects the inference cost level for a request. The cheap tier handles
// coarse topic filtering, the capable tier handles profile evolution and
// preference scoring.
type Tier string

const (
	TierCheap   Tier = "cheap"
	TierCapable Tier = "capable"
)

// Completer is the inference capability consumed by the pipelines. Implemented
// by *Client; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, tier Tier, prompt string) (string, error)
}

// Client routes prompts to one of two configured models by tier.
type Client struct {
	cheap       llms.Model
	capable     llms.Model
	cheapName   string
	capableName string
	timeout     time.Duration
	metrics     *metrics.Collector
	logger      *slog.Logger
}

var _ Completer = (*Client)(nil)

// NewClient builds both tier models from configuration. The collector and
// logger may be nil.
func NewClient(cfg config.Config, logger *slog.Logger, collector *metrics.Collector) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cheap, err := newModel(cfg, cfg.Cheap)
	if err != nil {
		return nil, fmt.Errorf("create cheap tier model: %w", err)
	}
	capable, err := newModel(cfg, cfg.Capable)
	if err != nil {
		return nil, fmt.Errorf("create capable tier model: %w", err)
	}

	return &Client{
		cheap:       cheap,
		capable:     capable,
		cheapName:   cfg.Cheap.Model,
		capableName: cfg.Capable.Model,
		timeout:     cfg.LLMTimeout,
		metrics:     collector,
		logger:      logger,
	}, nil
}

func newModel(cfg config.Config, tier config.TierConfig) (llms.Model, error) {
	switch tier.Provider {
	case config.ProviderOllama:
		model, err := ollama.New(
			ollama.WithModel(tier.Model),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return model, nil

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(tier.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		return model, nil

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err := anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(tier.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return model, nil

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.AWSRegion),
		)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		runtime := bedrockruntime.NewFromConfig(awsCfg)
		model, err := bedrock.New(
			bedrock.WithClient(runtime),
			bedrock.WithModel(tier.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}
		return model, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", tier.Provider)
	}
}

// Complete submits a prompt to the model behind the given tier. Every call is
// bounded by the configured timeout; a timeout surfaces as an ordinary error
// consumed by the caller's retry budget.
func (c *Client) Complete(ctx context.Context, tier Tier, prompt string) (string, error) {
	model, modelName, op := c.cheap, c.cheapName, metrics.OpLLMCheap
	if tier == TierCapable {
		model, modelName, op = c.capable, c.capableName, metrics.OpLLMCapable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("llm request", "tier", tier, "model", modelName, "prompt_len", len(prompt))

	start := time.Now()
	response, err := llms.GenerateFromSinglePrompt(ctx, model, prompt)
	duration := time.Since(start)

	c.metrics.RecordTiming(op, duration)

	if err != nil {
		c.logger.Warn("llm request failed",
			"tier", tier, "model", modelName, "duration_ms", duration.Milliseconds(), "error", err)
		return "", wrapFatalError(fmt.Errorf("generate (%s): %w", tier, err))
	}

	c.logger.Debug("llm response",
		"tier", tier, "model", modelName, "duration_ms", duration.Milliseconds(), "response_len", len(response))
	return response, nil
}

// CheapModel returns the configured cheap-tier model name.
func (c *Client) CheapModel() string { return c.cheapName }

// CapableModel returns the configured capable-tier model name.
func (c *Client) CapableModel() string { return c.capableName }
