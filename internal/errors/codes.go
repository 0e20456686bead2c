// Package errors provides structured error handling for paragraf.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (artifact storage)
//   - 3XX: Network errors (embedding provider)
//   - 4XX: Validation errors (queries, corpora, metadata)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates artifact and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates embedding-provider network errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeArtifactNotFound = "ERR_201_ARTIFACT_NOT_FOUND"
	ErrCodeCorruptIndex     = "ERR_202_CORRUPT_INDEX"
	ErrCodeStoreFailed      = "ERR_203_STORE_FAILED"
	ErrCodeLocked           = "ERR_204_COLLECTION_LOCKED"

	// Network errors (300-399)
	ErrCodeProviderTimeout     = "ERR_301_PROVIDER_TIMEOUT"
	ErrCodeProviderUnavailable = "ERR_302_PROVIDER_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeInvalidQuery      = "ERR_401_INVALID_QUERY"
	ErrCodeEmptyCorpus       = "ERR_402_EMPTY_CORPUS"
	ErrCodeNoContent         = "ERR_403_NO_CONTENT"
	ErrCodeMetadataMismatch  = "ERR_404_METADATA_MISMATCH"
	ErrCodeDimensionMismatch = "ERR_405_DIMENSION_MISMATCH"
	ErrCodeInvalidDocument   = "ERR_406_INVALID_DOCUMENT"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed     = "ERR_504_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives severity from error code.
// Build-fatal conditions (empty corpus, metadata mismatch, corruption)
// are FATAL; everything else defaults to ERROR.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeEmptyCorpus, ErrCodeNoContent, ErrCodeMetadataMismatch,
		ErrCodeDimensionMismatch, ErrCodeCorruptIndex:
		return SeverityFatal
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether an operation failing with this code
// may succeed on retry. Only provider network failures qualify.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeProviderTimeout, ErrCodeProviderUnavailable, ErrCodeLocked:
		return true
	default:
		return false
	}
}
