// Package providers holds LMProvider adapters: the seam where a provider's
// native error shape and response format are translated into the Runtime
// Dispatcher's closed taxonomy, once, at the source.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/runtime"
)

// Anthropic adapts the Anthropic Messages API to runtime.LMProvider.
// Credential.ID names the environment variable holding the API key — the
// adapter reads it fresh on every call so credential rotation takes effect
// immediately, and never retains or logs the key material.
type Anthropic struct{}

// NewAnthropic builds an Anthropic adapter.
func NewAnthropic() *Anthropic { return &Anthropic{} }

func (a *Anthropic) Call(ctx context.Context, req runtime.Request, model runtime.ModelRef, cred *runtime.Credential) (runtime.Response, error) {
	apiKey := os.Getenv(cred.ID)
	if apiKey == "" {
		return runtime.Response{}, errs.New(errs.CodeProviderAuth, "credential environment variable is unset or empty")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	messages := make([]anthropic.MessageParam, 0, len(req.Messages)+1)
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	if req.Prompt != "" {
		messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	// req.Tools is not translated into params.Tools yet, so ToolCalls on the
	// returned Response is always empty. Tool-calling is a documented,
	// unimplemented extension point — see ToolSchema/ToolCall in
	// runtime/provider.go.

	start := time.Now()
	message, err := client.Messages.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return runtime.Response{}, classifyAnthropicErr(err)
	}

	var content string
	if len(message.Content) > 0 && message.Content[0].Type == "text" {
		content = message.Content[0].Text
	}

	return runtime.Response{
		Content: content,
		Usage: runtime.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
		Latency:      latency,
		FinishReason: string(message.StopReason),
	}, nil
}

// classifyAnthropicErr translates an anthropic-sdk-go error into the closed
// taxonomy: 401/403 are credential faults, 429 and 5xx are provider
// unavailability, a network timeout is also unavailability, and anything
// else is left unclassified so the dispatcher treats it as fatal.
func classifyAnthropicErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.CodeUserAbort, "request canceled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errs.Wrap(errs.CodeProviderUnavail, "network timeout calling anthropic", err)
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 401 || apiErr.StatusCode == 403:
			return errs.Wrap(errs.CodeProviderAuth, fmt.Sprintf("anthropic rejected credentials (status %d)", apiErr.StatusCode), err)
		case apiErr.StatusCode == 429 || apiErr.StatusCode >= 500:
			return errs.Wrap(errs.CodeProviderUnavail, fmt.Sprintf("anthropic unavailable (status %d)", apiErr.StatusCode), err)
		}
	}

	return err
}
