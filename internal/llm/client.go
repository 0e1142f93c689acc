// Package llm is a thin synchronous and streaming facade over a langchaingo
// chat model.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/rahul/stacksmith/internal/observability"
	"github.com/tmc/langchaingo/llms"
)

// ErrStreamConsumed is yielded when a stream is ranged over a second time.
var ErrStreamConsumed = errors.New("stream already consumed")

// errStopped aborts the underlying request when the consumer stops ranging.
var errStopped = errors.New("stream stopped by consumer")

// UpstreamError wraps a transport or API failure of the model endpoint.
type UpstreamError struct {
	Op    string
	Model string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("llm %s (%s) failed: %v", e.Op, e.Model, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Client sends prompts to a chat model.
type Client struct {
	model       llms.Model
	modelName   string
	temperature float64
	maxTokens   int
	logger      *observability.Logger
}

type Option func(*Client)

func WithModelName(name string) Option {
	return func(c *Client) { c.modelName = name }
}

func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

func WithLogger(l *observability.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(model llms.Model, opts ...Option) *Client {
	c := &Client{
		model:       model,
		modelName:   "unknown",
		temperature: 0.7,
		maxTokens:   4000,
		logger:      observability.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete returns the full response to prompt. An empty system prompt sends
// no system message.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, c.messages(system, prompt), c.callOptions()...)
	if err != nil {
		return "", &UpstreamError{Op: "complete", Model: c.modelName, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Op: "complete", Model: c.modelName, Err: errors.New("empty response")}
	}

	choice := resp.Choices[0]
	c.logger.LogLLM(ctx, "complete", system, prompt, choice.Content)
	c.logUsage(ctx, choice.GenerationInfo)
	return choice.Content, nil
}

// Stream returns the response as a lazy sequence of fragments. Nothing is
// sent until the sequence is ranged over, and it can be ranged over once.
// A failure is delivered as a final ("", err) pair.
func (c *Client) Stream(ctx context.Context, system, prompt string) iter.Seq2[string, error] {
	var used atomic.Bool
	return func(yield func(string, error) bool) {
		if !used.CompareAndSwap(false, true) {
			yield("", ErrStreamConsumed)
			return
		}

		var (
			full    strings.Builder
			stopped bool
		)
		// Some models keep calling back after an error; once the consumer
		// stops, yield must never run again.
		onChunk := func(_ context.Context, chunk []byte) error {
			if stopped {
				return errStopped
			}
			if len(chunk) == 0 {
				return nil
			}
			full.Write(chunk)
			if !yield(string(chunk), nil) {
				stopped = true
				return errStopped
			}
			return nil
		}

		opts := append(c.callOptions(), llms.WithStreamingFunc(onChunk))
		resp, err := c.model.GenerateContent(ctx, c.messages(system, prompt), opts...)
		if stopped {
			return
		}
		if err != nil {
			yield("", &UpstreamError{Op: "stream", Model: c.modelName, Err: err})
			return
		}

		c.logger.LogLLM(ctx, "stream", system, prompt, full.String())
		if resp != nil && len(resp.Choices) > 0 {
			c.logUsage(ctx, resp.Choices[0].GenerationInfo)
		}
	}
}

// Collect drains a stream into a single string, copying each fragment to w
// as it arrives when w is non-nil. Write errors on w are ignored.
func Collect(seq iter.Seq2[string, error], w io.Writer) (string, error) {
	var b strings.Builder
	for chunk, err := range seq {
		if err != nil {
			return "", err
		}
		b.WriteString(chunk)
		if w != nil {
			_, _ = io.WriteString(w, chunk)
		}
	}
	return b.String(), nil
}

func (c *Client) messages(system, prompt string) []llms.MessageContent {
	var messages []llms.MessageContent
	if system != "" {
		messages = append(messages, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(system)},
		})
	}
	return append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(prompt)},
	})
}

func (c *Client) callOptions() []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(c.maxTokens))
	}
	return opts
}

func (c *Client) logUsage(ctx context.Context, info map[string]any) {
	prompt, okP := info["PromptTokens"].(int)
	completion, okC := info["CompletionTokens"].(int)
	if okP || okC {
		c.logger.LogCost(ctx, prompt, completion, c.modelName)
	}
}
