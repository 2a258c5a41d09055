package errors

import "net/http"

// ErrorCode is a typed, module-prefixed error code.
// The prefix identifies the subsystem that raised the error (COMMON, REQUEST,
// EXTRACT, FHIR, CONVERT) and the numeric suffix identifies the specific
// failure within that subsystem.  Codes are stable API surface: clients and
// dashboards key off them, so existing values must never be renumbered.
type ErrorCode string

// String returns the code's string form.
func (c ErrorCode) String() string {
	return string(c)
}

// Common codes shared by all modules.
const (
	// ErrCodeOK is the zero-failure sentinel returned by GetCode for nil errors.
	ErrCodeOK ErrorCode = "COMMON_000"

	// ErrCodeUnknown classifies errors that carry no AppError in their chain.
	ErrCodeUnknown ErrorCode = "COMMON_001"

	// ErrCodeInternal marks unexpected server-side failures.
	ErrCodeInternal ErrorCode = "COMMON_002"

	// ErrCodeBadRequest marks syntactically invalid or missing input.
	ErrCodeBadRequest ErrorCode = "COMMON_003"

	// ErrCodeNotFound marks lookups that matched nothing.
	ErrCodeNotFound ErrorCode = "COMMON_004"

	// ErrCodeValidation marks semantically invalid input on a well-formed request.
	ErrCodeValidation ErrorCode = "COMMON_005"

	// ErrCodeTimeout marks operations cancelled by deadline expiry.
	ErrCodeTimeout ErrorCode = "COMMON_006"

	// ErrCodeServiceUnavailable marks temporary inability to serve.
	ErrCodeServiceUnavailable ErrorCode = "COMMON_007"

	// ErrCodeConfigInvalid marks configuration that failed validation at startup.
	ErrCodeConfigInvalid ErrorCode = "COMMON_008"

	// ErrCodeRateLimited marks requests rejected by per-client throttling.
	ErrCodeRateLimited ErrorCode = "COMMON_009"
)

// Request-layer codes raised while decoding and validating inbound payloads.
const (
	// ErrCodeMalformedPayload marks request bodies that could not be decoded.
	ErrCodeMalformedPayload ErrorCode = "REQUEST_001"

	// ErrCodeNoteTooShort marks clinical notes below the minimum length.
	ErrCodeNoteTooShort ErrorCode = "REQUEST_002"

	// ErrCodePayloadTooLarge marks request bodies over the configured cap.
	ErrCodePayloadTooLarge ErrorCode = "REQUEST_003"
)

// Extraction codes raised by the keyword extraction engine.
const (
	// ErrCodeVocabularyInvalid marks vocabularies that failed validation
	// (empty term, uppercase term, unknown category).
	ErrCodeVocabularyInvalid ErrorCode = "EXTRACT_001"

	// ErrCodeTextTooLong marks input text over the extractor's configured limit.
	ErrCodeTextTooLong ErrorCode = "EXTRACT_002"
)

// FHIR codes raised while modeling and assembling FHIR resources.
const (
	// ErrCodeUnknownCategory marks entity categories with no FHIR mapping.
	ErrCodeUnknownCategory ErrorCode = "FHIR_001"

	// ErrCodeBundleAssembly marks failures while assembling a bundle.
	ErrCodeBundleAssembly ErrorCode = "FHIR_002"
)

// Conversion codes raised by the end-to-end conversion pipeline.
const (
	// ErrCodeConversionFailed marks pipeline failures not attributable to a
	// more specific extraction or FHIR code.
	ErrCodeConversionFailed ErrorCode = "CONVERT_001"
)

// ErrorCodeHTTPStatus maps each code to the HTTP status the API layer returns
// when the error surfaces in a response.  Codes not present here default to 500.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeOK:                 http.StatusOK,
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeConfigInvalid:      http.StatusInternalServerError,
	ErrCodeRateLimited:        http.StatusTooManyRequests,

	ErrCodeMalformedPayload: http.StatusBadRequest,
	ErrCodeNoteTooShort:     http.StatusUnprocessableEntity,
	ErrCodePayloadTooLarge:  http.StatusRequestEntityTooLarge,

	ErrCodeVocabularyInvalid: http.StatusInternalServerError,
	ErrCodeTextTooLong:       http.StatusUnprocessableEntity,

	ErrCodeUnknownCategory: http.StatusInternalServerError,
	ErrCodeBundleAssembly:  http.StatusInternalServerError,

	ErrCodeConversionFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps each code to a safe default message for API responses
// when the error's own message should not be exposed.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeOK:                 "ok",
	ErrCodeUnknown:            "an unknown error occurred",
	ErrCodeInternal:           "an internal error occurred",
	ErrCodeBadRequest:         "invalid request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeValidation:         "request failed validation",
	ErrCodeTimeout:            "the operation timed out",
	ErrCodeServiceUnavailable: "service temporarily unavailable",
	ErrCodeConfigInvalid:      "invalid configuration",
	ErrCodeRateLimited:        "rate limit exceeded",

	ErrCodeMalformedPayload: "request body could not be decoded",
	ErrCodeNoteTooShort:     "clinical note is too short",
	ErrCodePayloadTooLarge:  "request body is too large",

	ErrCodeVocabularyInvalid: "extraction vocabulary is invalid",
	ErrCodeTextTooLong:       "input text exceeds the maximum length",

	ErrCodeUnknownCategory: "entity category has no FHIR mapping",
	ErrCodeBundleAssembly:  "failed to assemble FHIR bundle",

	ErrCodeConversionFailed: "conversion failed",
}

// HTTPStatusForCode returns the HTTP status associated with code, or 500 if
// the code has no mapping.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the safe default message associated with code,
// or the generic internal-error message if the code has no mapping.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return ErrorCodeMessage[ErrCodeInternal]
}

// IsClientError reports whether code maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether code maps to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode returns the module prefix of code ("COMMON", "REQUEST",
// "EXTRACT", "FHIR", "CONVERT"), or "UNKNOWN" for codes without a prefix.
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			return s[:i]
		}
	}
	return "UNKNOWN"
}
