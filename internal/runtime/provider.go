package runtime

import (
	"context"
	"time"
)

// Message is one turn of conversational context passed to a provider call.
type Message struct {
	Role    string
	Content string
}

// ToolSchema describes one tool a provider may call. Request.Tools and
// Response.ToolCalls carry this through the provider-agnostic call shape;
// see providers.Anthropic for the one adapter that currently exists and why
// it does not yet populate either field.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// ToolCall is a provider's request to invoke one tool, returned alongside or
// instead of Content.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// Request is the provider-agnostic shape of one dispatch call.
type Request struct {
	TaskType  string
	Prompt    string
	Messages  []Message
	Tools     []ToolSchema
	MaxTokens int
}

// Usage reports token consumption for one provider call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is a provider call's result, normalized across providers.
type Response struct {
	Content      string
	Model        ModelRef
	Usage        Usage
	Latency      time.Duration
	FinishReason string
	Reasoning    string
	ToolCalls    []ToolCall
}

// LMProvider is one adapter's binding to a concrete provider's API. A
// returned error must already be classified into the closed errs.Code
// taxonomy — the Error Classifier trusts the adapter to have done that
// translation once, at the source.
type LMProvider interface {
	Call(ctx context.Context, req Request, model ModelRef, cred *Credential) (Response, error)
}
