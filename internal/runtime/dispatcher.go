package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patheras/prometheus-core/internal/errs"
	"github.com/patheras/prometheus-core/internal/logging"
)

// AttemptRecord is one fallback-chain hop's outcome, kept whether it
// succeeded or failed so a FallbackExhausted fault can carry a complete
// trace.
type AttemptRecord struct {
	Model        ModelRef
	Provider     string
	CredentialID string
	ErrorKind    errs.Code
	Message      string
}

// Dispatcher selects a model, builds its fallback chain, and executes
// against providers, rotating credentials and advancing the chain on
// recoverable faults.
type Dispatcher struct {
	catalog     *Catalog
	selector    *Selector
	credentials *CredentialManager
	providers   map[string]LMProvider
	metrics     *logging.DispatchMetrics
	logger      *logging.EnhancedLogger
}

// NewDispatcher wires a Dispatcher. providers is keyed by provider name,
// matching ModelRef.Provider and Credential.Provider.
func NewDispatcher(catalog *Catalog, selector *Selector, credentials *CredentialManager, providers map[string]LMProvider) *Dispatcher {
	metrics, err := logging.NewDispatchMetrics()
	if err != nil {
		metrics = nil
	}
	return &Dispatcher{
		catalog:     catalog,
		selector:    selector,
		credentials: credentials,
		providers:   providers,
		metrics:     metrics,
		logger:      logging.RuntimeLogger,
	}
}

// Execute runs the Selecting -> Dispatching -> CallingProvider ->
// {Success|Classifying} -> {NextCredential|NextModel|Aborted|Exhausted}
// state machine described in spec.md's Runtime Dispatcher design.
//
// ctx.Err() doubles as the cancellation token: context.Canceled aborts the
// chain immediately (a user abort), while context.DeadlineExceeded is
// treated as a recoverable provider timeout and the chain advances to the
// next attempt.
func (d *Dispatcher) Execute(ctx context.Context, taskType string, req Request, selOpts SelectOptions, fbOpts FallbackOptions) (Response, []AttemptRecord, error) {
	selection, err := d.selector.Select(taskType, selOpts)
	if err != nil {
		return Response{}, nil, err
	}
	chain := BuildFallbackChain(selection.Entry.Ref, d.catalog, fbOpts)

	var attempts []AttemptRecord
	for _, model := range chain {
		if abort, suspendErr := d.checkSuspension(ctx); suspendErr != nil {
			attempts = append(attempts, AttemptRecord{Model: model, Provider: model.Provider, ErrorKind: errs.CodeOf(suspendErr), Message: suspendErr.Error()})
			if abort {
				return Response{}, attempts, suspendErr
			}
			continue
		}

		provider, ok := d.providers[model.Provider]
		if !ok {
			attempts = append(attempts, AttemptRecord{Model: model, Provider: model.Provider, ErrorKind: errs.CodeFatal, Message: "no provider adapter registered"})
			continue
		}

		cred, ok := d.credentials.Acquire(model.Provider)
		if !ok {
			attempts = append(attempts, AttemptRecord{Model: model, Provider: model.Provider, ErrorKind: errs.CodeProviderUnavail, Message: "no credential available"})
			continue
		}

		if abort, suspendErr := d.checkSuspension(ctx); suspendErr != nil {
			attempts = append(attempts, AttemptRecord{Model: model, Provider: model.Provider, CredentialID: cred.ID, ErrorKind: errs.CodeOf(suspendErr), Message: suspendErr.Error()})
			if abort {
				return Response{}, attempts, suspendErr
			}
			continue
		}

		start := time.Now()
		resp, callErr := provider.Call(ctx, req, model, cred)
		if resp.Latency == 0 {
			resp.Latency = time.Since(start)
		}

		if d.metrics != nil {
			outcome := "success"
			if callErr != nil {
				outcome = "error"
			}
			d.metrics.RecordAttempt(ctx, model.Model, model.Provider, outcome)
		}

		if callErr == nil {
			d.credentials.MarkSuccess(cred)
			resp.Model = model
			attempts = append(attempts, AttemptRecord{Model: model, Provider: model.Provider, CredentialID: cred.ID})
			return resp, attempts, nil
		}

		kind := ClassifyError(callErr)
		attempts = append(attempts, AttemptRecord{Model: model, Provider: model.Provider, CredentialID: cred.ID, ErrorKind: kind, Message: callErr.Error()})

		switch kind {
		case errs.CodeUserAbort:
			return Response{}, attempts, callErr
		case errs.CodeProviderAuth:
			d.credentials.MarkFailure(cred)
			continue
		case errs.CodeContextTooLong, errs.CodeProviderUnavail:
			continue
		default:
			return Response{}, attempts, errs.Wrap(errs.CodeFatal, "unclassified provider error aborted the fallback chain", callErr)
		}
	}

	return Response{}, attempts, errs.New(errs.CodeFallbackExhausted,
		fmt.Sprintf("all %d attempt(s) in the fallback chain failed", len(attempts))).WithDetails(attempts)
}

// checkSuspension is called at every point spec.md's state machine names a
// suspension point. It returns (true, err) when the chain must abort
// outright, or (false, err) when the error is recoverable and the caller
// should record it and advance to the next chain entry.
func (d *Dispatcher) checkSuspension(ctx context.Context) (abort bool, err error) {
	ctxErr := ctx.Err()
	if ctxErr == nil {
		return false, nil
	}
	if errors.Is(ctxErr, context.Canceled) {
		return true, errs.New(errs.CodeUserAbort, "execution canceled")
	}
	return false, errs.New(errs.CodeProviderUnavail, "request deadline exceeded")
}
