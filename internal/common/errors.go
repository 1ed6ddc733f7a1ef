package common

// Error codes returned by the storefront API. Handlers translate AppError
// values into the JSON error envelope; anything without a code collapses
// into CodeInternal.
const (
	// CodeBadRequest covers malformed input: unparsable ids, out-of-range
	// dimensions, unknown option values.
	CodeBadRequest = "BAD_REQUEST"
	// CodeNotFound covers missing products, regions, bundles, and expired
	// or evicted selection sessions.
	CodeNotFound = "NOT_FOUND"
	// CodeInvalidInput marks calls that cannot proceed at all, such as
	// pricing an unidentified bundle.
	CodeInvalidInput = "INVALID_INPUT"
	// CodeServiceBusy is returned when the session store is at capacity
	// and nothing is ripe for eviction.
	CodeServiceBusy = "SERVICE_BUSY"
	// CodePayloadTooLarge rejects artwork uploads over the size limit.
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	// CodeInternal is the fallback for unexpected failures.
	CodeInternal = "INTERNAL"
)

// AppError carries an error code, buyer-safe message, and HTTP status through
// the service layers. "No matching variant" and "out of stock" are session
// state flags, never AppErrors.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the cause to errors.Is/As.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
