// Package cerr provides structured error handling for the document
// index, grounded on the teacher's internal/errors.AmanError: a stable
// string code, a category, a severity, a cause chain, a retryability
// flag, and human recovery suggestions (spec.md §7).
package cerr

// Category classifies an error for reporting/logging purposes.
type Category string

const (
	CategoryStorage    Category = "STORAGE"
	CategoryConcurrency Category = "CONCURRENCY"
	CategoryValidation Category = "VALIDATION"
	CategoryNotFound   Category = "NOT_FOUND"
	CategoryInternal   Category = "INTERNAL"
)

// Severity indicates how the caller should react.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Stable error codes (spec.md §7). TANTIVY_ERROR is kept verbatim from
// the spec's own example list: it names the role ("underlying full-text
// engine failure"), not a specific library, and is surfaced regardless
// of which engine (here, Bleve) sits underneath.
const (
	CodeStorageError         = "TANTIVY_ERROR"
	CodeIndexCorrupted       = "INDEX_CORRUPTED"
	CodeMutexPoisoned        = "MUTEX_POISONED"
	CodeFileNotFound         = "FILE_NOT_FOUND"
	CodeNoActiveBatch        = "NO_ACTIVE_BATCH"
	CodeWriterKilled         = "WRITER_KILLED"
	CodeAmbiguousSymbol      = "AMBIGUOUS_SYMBOL"
	CodeDimensionMismatch    = "DIMENSION_MISMATCH"
	CodeInvalidFieldValue    = "INVALID_FIELD_VALUE"
	CodeEmbeddingFailed      = "EMBEDDING_FAILED"
	CodeSemanticDisabled     = "SEMANTIC_SEARCH_DISABLED"
	CodeNotFound             = "NOT_FOUND"
)

func categoryFor(code string) Category {
	switch code {
	case CodeNotFound, CodeFileNotFound:
		return CategoryNotFound
	case CodeMutexPoisoned, CodeWriterKilled:
		return CategoryConcurrency
	case CodeDimensionMismatch, CodeInvalidFieldValue, CodeAmbiguousSymbol, CodeNoActiveBatch:
		return CategoryValidation
	case CodeStorageError, CodeIndexCorrupted:
		return CategoryStorage
	default:
		return CategoryInternal
	}
}

func severityFor(code string) Severity {
	switch code {
	case CodeWriterKilled, CodeIndexCorrupted:
		return SeverityFatal
	case CodeEmbeddingFailed, CodeSemanticDisabled:
		return SeverityWarning
	case CodeNotFound, CodeFileNotFound:
		return SeverityInfo
	default:
		return SeverityError
	}
}

func retryableFor(code string) bool {
	return code == CodeStorageError
}

// Exit classifies an error into the process exit-code semantics named
// by spec.md §6: 0 success (Classify returns it for a nil error), 1
// general error, 2 not-found, and a distinct "ambiguous" class carrying
// candidate ids.
type Exit int

const (
	ExitOK        Exit = 0
	ExitGeneral   Exit = 1
	ExitNotFound  Exit = 2
	ExitAmbiguous Exit = 3
)

// Classify maps an error's code to the exit-code semantics of §6. A
// caller-side CLI (out of scope for this module) uses this to decide
// os.Exit(...); the core itself never exits the process.
func Classify(err error) Exit {
	ce, ok := AsCodedError(err)
	if !ok {
		if err == nil {
			return ExitOK
		}
		return ExitGeneral
	}
	switch ce.Code {
	case CodeNotFound, CodeFileNotFound:
		return ExitNotFound
	case CodeAmbiguousSymbol:
		return ExitAmbiguous
	default:
		return ExitGeneral
	}
}
