package embedding

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/patheras/prometheus-core/internal/errs"
)

// Anthropic is the production embedding seam: a second Provider
// implementer alongside Mock, following the same concrete-service-behind-
// an-interface pairing used elsewhere in this package. Anthropic's API has no
// dedicated embeddings endpoint as of this client version, so Embed
// surfaces Fatal rather than silently falling back to the mock — callers
// that want a real embedding provider must supply one until this is wired
// to a concrete embeddings API.
type Anthropic struct {
	client anthropic.Client
	dim    int
}

// NewAnthropic builds an Anthropic embedding provider bound to client.
func NewAnthropic(client anthropic.Client, dim int) *Anthropic {
	return &Anthropic{client: client, dim: dim}
}

func (a *Anthropic) Dim() int { return a.dim }

func (a *Anthropic) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errs.New(errs.CodeFatal, "anthropic embedding provider has no backing endpoint wired yet")
}
