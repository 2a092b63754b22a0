// internal/errors/errors.go
package appErrors

import "fmt"

// ValidationError reports a malformed or unsafe rule group: unknown field,
// operator incompatible with the field type, empty group, or an over-deep
// tree. It always surfaces to the caller of the compiler.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rule group: %s", e.Reason)
}

func NewValidation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// QueryError reports an unreachable data source or a malformed response
// during a read. Estimation degrades to a zero count but the error stays
// observable.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func NewQuery(op string, err error) error {
	return &QueryError{Op: op, Err: err}
}

// PersistenceError reports a failed delivery-log write. A simulation run
// aborts on the first one, returning no stats.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// ProviderError reports an unavailable or empty-handed text-generation
// collaborator. Only the message provider adapter may absorb it.
type ProviderError struct {
	Reason string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("message provider: %s", e.Reason)
}

func NewProvider(format string, args ...any) error {
	return &ProviderError{Reason: fmt.Sprintf(format, args...)}
}

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}
