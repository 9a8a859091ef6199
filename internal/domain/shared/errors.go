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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidAmount       = NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient unclaimed balance available")
	ErrReceiptNotFound     = NewDomainError("RECEIPT_NOT_FOUND", "Received payment not found")
	ErrRequestNotFound     = NewDomainError("REQUEST_NOT_FOUND", "Payment request not found")
	ErrCodeGeneration      = NewDomainError("CODE_GENERATION_FAILED", "Failed to generate a unique document number")
)
