package providers

import (
	"context"
	"sync"

	"github.com/patheras/prometheus-core/internal/runtime"
)

// ScriptedCall is one canned response (or error) a Mock provider returns on
// a given call index for a given model, used to drive deterministic
// fallback-chain tests without a network dependency.
type ScriptedCall struct {
	Response runtime.Response
	Err      error
}

// Mock is a scriptable LMProvider: each call to Call for a given model
// consumes the next entry in that model's script, repeating the last entry
// once the script is exhausted.
type Mock struct {
	mu      sync.Mutex
	scripts map[string][]ScriptedCall
	cursor  map[string]int
	calls   []CallRecord
}

// CallRecord captures one observed Call invocation for test assertions.
type CallRecord struct {
	Model        runtime.ModelRef
	CredentialID string
}

// NewMock builds an empty Mock. Use Script to program per-model responses.
func NewMock() *Mock {
	return &Mock{scripts: make(map[string][]ScriptedCall), cursor: make(map[string]int)}
}

// Script appends calls to model's response sequence.
func (m *Mock) Script(model runtime.ModelRef, calls ...ScriptedCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[model.String()] = append(m.scripts[model.String()], calls...)
}

// Calls returns every Call invocation observed so far, in order.
func (m *Mock) Calls() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *Mock) Call(_ context.Context, _ runtime.Request, model runtime.ModelRef, cred *runtime.Credential) (runtime.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, CallRecord{Model: model, CredentialID: cred.ID})

	key := model.String()
	script := m.scripts[key]
	if len(script) == 0 {
		return runtime.Response{Model: model, Content: "mock response"}, nil
	}
	idx := m.cursor[key]
	if idx >= len(script) {
		idx = len(script) - 1
	} else {
		m.cursor[key] = idx + 1
	}
	sc := script[idx]
	if sc.Err != nil {
		return runtime.Response{}, sc.Err
	}
	if sc.Response.Model == (runtime.ModelRef{}) {
		sc.Response.Model = model
	}
	return sc.Response, nil
}
