package errors

import (
	"net/http"
	"strings"
)

// ErrorCode identifies a specific failure category.  Codes are grouped by
// module prefix: COMMON (cross-cutting), NOTE (ingestion), ORACLE (external
// AI/search collaborators), ENT (entity resolution and merging), WF
// (workforce reconciliation), STORE (document persistence).
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeValidation         ErrorCode = "COMMON_005"
	ErrCodeSerialization      ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeCacheError         ErrorCode = "COMMON_009"
	ErrCodeExternalService    ErrorCode = "COMMON_010"
	ErrCodeNotImplemented     ErrorCode = "COMMON_011"
)

// Note ingestion error codes.
const (
	ErrCodeNoteEmpty            ErrorCode = "NOTE_001"
	ErrCodeNoteProcessingFailed ErrorCode = "NOTE_002"
	ErrCodeTranslationFailed    ErrorCode = "NOTE_003"
	ErrCodeLanguageDetectFailed ErrorCode = "NOTE_004"
)

// Oracle error codes.  ErrCodeOracleUnavailable and ErrCodeOracleUnparseable
// on the extraction path are fatal for the note being processed; the same
// codes on the translation or web-search paths are degraded-mode signals.
const (
	ErrCodeOracleUnavailable ErrorCode = "ORACLE_001"
	ErrCodeOracleUnparseable ErrorCode = "ORACLE_002"
	ErrCodeOracleRateLimited ErrorCode = "ORACLE_003"
	ErrCodeOracleEmptyAnswer ErrorCode = "ORACLE_004"
	ErrCodeSearchUnavailable ErrorCode = "ORACLE_005"
)

// Entity resolution error codes.
const (
	ErrCodeEntityNotFound      ErrorCode = "ENT_001"
	ErrCodeEntityInvalid       ErrorCode = "ENT_002"
	ErrCodeEntityNameMissing   ErrorCode = "ENT_003"
	ErrCodeHeadquartersMissing ErrorCode = "ENT_004"
	ErrCodeMergeFailed         ErrorCode = "ENT_005"
	ErrCodeVersionConflict     ErrorCode = "ENT_006"
	ErrCodeKindMismatch        ErrorCode = "ENT_007"
	ErrCodeIdentifierExhausted ErrorCode = "ENT_008"
)

// Workforce error codes.
const (
	ErrCodeWorkforceNotFound ErrorCode = "WF_001"
	ErrCodeRosterInvalid     ErrorCode = "WF_002"
)

// Document store error codes.
const (
	ErrCodeStoreWriteFailed ErrorCode = "STORE_001"
	ErrCodeStoreQueryFailed ErrorCode = "STORE_002"
	ErrCodeStoreUnavailable ErrorCode = "STORE_003"
	ErrCodeDocumentNotFound ErrorCode = "STORE_004"
	ErrCodeDocumentConflict ErrorCode = "STORE_005"
)

// errorCodeHTTPStatus maps codes to HTTP status codes for the API layer.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeNoteEmpty:            http.StatusBadRequest,
	ErrCodeNoteProcessingFailed: http.StatusInternalServerError,
	ErrCodeTranslationFailed:    http.StatusBadGateway,
	ErrCodeLanguageDetectFailed: http.StatusBadGateway,

	ErrCodeOracleUnavailable: http.StatusServiceUnavailable,
	ErrCodeOracleUnparseable: http.StatusBadGateway,
	ErrCodeOracleRateLimited: http.StatusTooManyRequests,
	ErrCodeOracleEmptyAnswer: http.StatusBadGateway,
	ErrCodeSearchUnavailable: http.StatusServiceUnavailable,

	ErrCodeEntityNotFound:      http.StatusNotFound,
	ErrCodeEntityInvalid:       http.StatusUnprocessableEntity,
	ErrCodeEntityNameMissing:   http.StatusUnprocessableEntity,
	ErrCodeHeadquartersMissing: http.StatusUnprocessableEntity,
	ErrCodeMergeFailed:         http.StatusInternalServerError,
	ErrCodeVersionConflict:     http.StatusConflict,
	ErrCodeKindMismatch:        http.StatusConflict,
	ErrCodeIdentifierExhausted: http.StatusConflict,

	ErrCodeWorkforceNotFound: http.StatusNotFound,
	ErrCodeRosterInvalid:     http.StatusUnprocessableEntity,

	ErrCodeStoreWriteFailed: http.StatusInternalServerError,
	ErrCodeStoreQueryFailed: http.StatusInternalServerError,
	ErrCodeStoreUnavailable: http.StatusServiceUnavailable,
	ErrCodeDocumentNotFound: http.StatusNotFound,
	ErrCodeDocumentConflict: http.StatusConflict,
}

// errorCodeMessage maps codes to default human-readable messages.
var errorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeTimeout:            "operation timed out",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeNoteEmpty:            "note text is empty",
	ErrCodeNoteProcessingFailed: "note processing failed",
	ErrCodeTranslationFailed:    "translation failed",
	ErrCodeLanguageDetectFailed: "language detection failed",

	ErrCodeOracleUnavailable: "extraction oracle unavailable",
	ErrCodeOracleUnparseable: "extraction oracle returned unparseable output",
	ErrCodeOracleRateLimited: "oracle rate limited",
	ErrCodeOracleEmptyAnswer: "oracle returned an empty answer",
	ErrCodeSearchUnavailable: "web-search oracle unavailable",

	ErrCodeEntityNotFound:      "entity not found",
	ErrCodeEntityInvalid:       "entity failed validation",
	ErrCodeEntityNameMissing:   "entity name is required",
	ErrCodeHeadquartersMissing: "office headquarters location is required for creation",
	ErrCodeMergeFailed:         "entity merge failed",
	ErrCodeVersionConflict:     "entity was modified concurrently",
	ErrCodeKindMismatch:        "entity kind mismatch",
	ErrCodeIdentifierExhausted: "could not synthesize a unique identifier",

	ErrCodeWorkforceNotFound: "workforce record not found",
	ErrCodeRosterInvalid:     "workforce roster is invalid",

	ErrCodeStoreWriteFailed: "document store write failed",
	ErrCodeStoreQueryFailed: "document store query failed",
	ErrCodeStoreUnavailable: "document store unavailable",
	ErrCodeDocumentNotFound: "document not found",
	ErrCodeDocumentConflict: "document version conflict",
}

// HTTPStatusForCode returns the HTTP status code mapped to code, defaulting
// to 500 for unknown codes.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for code.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := errorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of a code, e.g. "ENT" for ENT_005.
func ModuleForCode(code ErrorCode) string {
	parts := strings.SplitN(string(code), "_", 2)
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
