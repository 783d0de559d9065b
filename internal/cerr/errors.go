package cerr

import (
	"errors"
	"fmt"
)

// Error is the structured error type threaded through the document
// index and vector subsystem.
type Error struct {
	Code       string
	Message    string
	Category   Category
	Severity   Severity
	Details    map[string]string
	Cause      error
	Retryable  bool
	Suggestion string

	// Candidates carries the ambiguous-match SymbolIds for CodeAmbiguousSymbol
	// errors (spec.md §6: "a distinct error with a listing of candidate
	// symbol_ids").
	Candidates []uint32
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is enables errors.Is(err, target) to match by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetail attaches a key/value detail and returns e for chaining.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches a human recovery suggestion.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithCandidates attaches ambiguous-match candidate ids.
func (e *Error) WithCandidates(ids []uint32) *Error {
	e.Candidates = ids
	return e
}

// New creates an Error with category/severity/retryability derived from code.
func New(code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFor(code),
		Severity:  severityFor(code),
		Cause:     cause,
		Retryable: retryableFor(code),
	}
}

// Wrap creates an Error from an existing error, preserving its message.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// AsCodedError extracts an *Error from err, if any.
func AsCodedError(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	ce, ok := AsCodedError(err)
	return ok && ce.Retryable
}

// IsFatal reports whether err is a fatal-severity *Error.
func IsFatal(err error) bool {
	ce, ok := AsCodedError(err)
	return ok && ce.Severity == SeverityFatal
}

// Common constructors used throughout docindex.

func NoActiveBatch() *Error {
	return New(CodeNoActiveBatch, "no active batch: call start_batch first", nil).
		WithSuggestion("call StartBatch before issuing writes")
}

func WriterKilled(cause error) *Error {
	return New(CodeWriterKilled, "writer thread died", cause).
		WithSuggestion("recreate the DocumentIndex or retry a whole new batch")
}

func StorageError(op string, cause error) *Error {
	return New(CodeStorageError, fmt.Sprintf("storage engine error during %s", op), cause).
		WithSuggestion("retry the operation; if it persists, rebuild the index from source")
}

func IndexCorrupted(cause error) *Error {
	return New(CodeIndexCorrupted, "index data is corrupted", cause).
		WithSuggestion("rebuild the index from source")
}

func NotFound(kind, id string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s %s not found", kind, id), nil)
}

func Ambiguous(name string, candidates []uint32) *Error {
	return New(CodeAmbiguousSymbol, fmt.Sprintf("multiple symbols named %q", name), nil).
		WithCandidates(candidates).
		WithSuggestion("disambiguate by file or language")
}

func DimensionMismatch(expected, got int) *Error {
	return New(CodeDimensionMismatch, fmt.Sprintf("expected %d dimensions, got %d", expected, got), nil)
}

func InvalidFieldValue(field string, cause error) *Error {
	return New(CodeInvalidFieldValue, fmt.Sprintf("document field %q missing or malformed", field), cause)
}

func EmbeddingFailed(cause error) *Error {
	return New(CodeEmbeddingFailed, "embedding generation failed", cause).
		WithSuggestion("affected symbols remain searchable by text; retry in a later batch")
}

func SemanticSearchDisabled() *Error {
	return New(CodeSemanticDisabled, "semantic search is disabled: no vector support configured", nil)
}
