package deploy

import "fmt"

// AcquisitionError is returned when the proxy binary cannot be acquired.
type AcquisitionError struct {
	// Err is the underlying error.
	Err error

	// OS and Arch identify the requested artifact.
	OS   string
	Arch string
}

// type check
var _ error = (*AcquisitionError)(nil)

// Error implements the error interface for *AcquisitionError.
func (e *AcquisitionError) Error() (msg string) {
	return fmt.Sprintf("acquiring artifact for %s/%s: %v", e.OS, e.Arch, e.Err)
}

// Unwrap returns the underlying error.
func (e *AcquisitionError) Unwrap() (err error) {
	return e.Err
}

// CertificateError is returned when the certificate provider fails.
type CertificateError struct {
	// Err is the underlying error.
	Err error

	// CommonName is the requested certificate common name.
	CommonName string
}

// type check
var _ error = (*CertificateError)(nil)

// Error implements the error interface for *CertificateError.
func (e *CertificateError) Error() (msg string) {
	return fmt.Sprintf("ensuring certificate for %q: %v", e.CommonName, e.Err)
}

// Unwrap returns the underlying error.
func (e *CertificateError) Unwrap() (err error) {
	return e.Err
}

// ValidationError is returned when the syntax validator rejects the freshly
// written front proxy document.  The orchestrator rolls the document back
// before returning it, so the host is left untouched.
type ValidationError struct {
	// Path is the rejected document path.
	Path string

	// Message is the validator output.
	Message string
}

// type check
var _ error = (*ValidationError)(nil)

// Error implements the error interface for *ValidationError.
func (e *ValidationError) Error() (msg string) {
	return fmt.Sprintf("validating %s: %s", e.Path, e.Message)
}

// ActivationError is returned when the service fails to restart after the
// configuration was proven valid.  The written files are deliberately kept:
// they passed validation, only the process activation failed.
type ActivationError struct {
	// Service is the service name.
	Service string

	// Message is the service controller output.
	Message string
}

// type check
var _ error = (*ActivationError)(nil)

// Error implements the error interface for *ActivationError.
func (e *ActivationError) Error() (msg string) {
	return fmt.Sprintf("restarting %s: %s", e.Service, e.Message)
}
