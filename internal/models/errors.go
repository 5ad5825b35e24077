package models

import "errors"

// Incident triage error taxonomy. Wrap with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrInsufficientEvidence = errors.New("insufficient evidence: provide a photo, an audio transcript or a description")
	ErrClassification       = errors.New("classification failed")
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateID          = errors.New("duplicate id")
	ErrRemoteService        = errors.New("remote service error")
	ErrForbidden            = errors.New("access to this resource is not permitted")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// ClassificationError is a rejected classification that was still billed by the inference
// endpoint. It wraps the underlying error so errors.Is keeps matching the taxonomy.
type ClassificationError struct {
	Err   error
	Usage *AIUsage
}

func (e *ClassificationError) Error() string { return e.Err.Error() }

func (e *ClassificationError) Unwrap() error { return e.Err }

// WithUsage attaches usage to err. A nil usage returns err unchanged.
func WithUsage(err error, usage *AIUsage) error {
	if err == nil || usage == nil {
		return err
	}
	return &ClassificationError{Err: err, Usage: usage}
}

// UsageOf returns the usage carried by err, if any.
func UsageOf(err error) *AIUsage {
	var ce *ClassificationError
	if errors.As(err, &ce) {
		return ce.Usage
	}
	return nil
}
