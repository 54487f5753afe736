package utils

import "errors"

// Common application errors used across services.
var (
	ErrCertificateNotFound = errors.New("CERTIFICATE_NOT_FOUND")
	ErrCompanyNotFound     = errors.New("COMPANY_NOT_FOUND")
	ErrCompanyService      = errors.New("COMPANY_SERVICE_UNAVAILABLE")
	ErrInvalidArgument     = errors.New("INVALID_ARGUMENT")
)
