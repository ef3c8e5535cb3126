package runtime

import "github.com/patheras/prometheus-core/internal/errs"

// ClassifyError extracts the closed-taxonomy code an LMProvider adapter
// already assigned a call failure. Adapters are expected to translate their
// provider's native error shape once, at the call site (see
// internal/runtime/providers/anthropic.go), rather than leaking
// provider-specific error types up through the dispatch loop. An error the
// adapter left unclassified is treated as fatal, matching the execute loop's
// "anything else aborts the chain" rule.
func ClassifyError(err error) errs.Code {
	if err == nil {
		return ""
	}
	if code := errs.CodeOf(err); code != "" {
		return code
	}
	return errs.CodeFatal
}
