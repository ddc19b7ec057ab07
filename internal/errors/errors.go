package apperrors

import "fmt"

// UnsupportedBackendError reports an EMAIL_BACKEND value the mailer cannot
// serve.
type UnsupportedBackendError struct {
	Backend string
}

func (e *UnsupportedBackendError) Error() string {
	return fmt.Sprintf("unsupported email backend %q", e.Backend)
}

// Helper constructor
func NewUnsupportedBackend(backend string) error {
	return &UnsupportedBackendError{Backend: backend}
}
