package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrUnauthorized  = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
)

// Engine failure conditions. Network-origin errors are wrapped with one of
// these so call sites can decide between blocking (catalog), silent reset
// (lookup) and user-visible notification (persistence).
var (
	ErrCatalogUnavailable = NewDomainError("CATALOG_UNAVAILABLE", "Product catalog could not be loaded")
	ErrLookupFailed       = NewDomainError("LOOKUP_FAILED", "Client directory lookup failed")
	ErrPersistence        = NewDomainError("PERSISTENCE_FAILED", "Remote data service request failed")
	ErrMalformedResponse  = NewDomainError("MALFORMED_RESPONSE", "Remote data service returned an unreadable response")
)
