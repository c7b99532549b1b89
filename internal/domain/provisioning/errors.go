package provisioning

import (
	"fmt"

	"github.com/erp/provisioner/internal/domain/shared"
)

// Error codes specific to provisioning. Not-found and invalid-state reuse the
// shared codes so that errors.Is(err, shared.ErrNotFound) keeps working.
const (
	CodeProvisioningFailed = "PROVISIONING_FAILED"
	CodeApplyInProgress    = "APPLY_IN_PROGRESS"
)

// ErrTemplateNotFound reports a missing or soft-deleted template.
func ErrTemplateNotFound(code string) *shared.DomainError {
	return shared.NewDomainError(shared.ErrNotFound.Code, fmt.Sprintf("Template not found: %s", code))
}

// ErrTemplateInactive reports an attempt to apply a deactivated template.
func ErrTemplateInactive(code string) *shared.DomainError {
	return shared.NewDomainError(shared.ErrInvalidState.Code, fmt.Sprintf("Template is not active: %s", code))
}

// ErrTemplateCodeTaken reports a duplicate template code.
func ErrTemplateCodeTaken(code string) *shared.DomainError {
	return shared.NewDomainError(shared.ErrAlreadyExists.Code, fmt.Sprintf("Template with code '%s' already exists", code))
}

// ErrApplyInProgress reports a concurrent apply for the same organization and template.
func ErrApplyInProgress(code string) *shared.DomainError {
	return shared.NewDomainError(CodeApplyInProgress, fmt.Sprintf("Template %s is already being applied to this organization", code))
}

// ProvisioningFailedError is returned when a run created nothing and at least
// one item failed. It unwraps to a PROVISIONING_FAILED domain error.
type ProvisioningFailedError struct {
	TemplateCode string
	ErrorCount   int
	SkipCount    int
}

// Error implements the error interface
func (e *ProvisioningFailedError) Error() string {
	return fmt.Sprintf("Failed to apply template %s: %d errors", e.TemplateCode, e.ErrorCount)
}

// Unwrap exposes the domain error for HTTP mapping.
func (e *ProvisioningFailedError) Unwrap() error {
	return shared.NewDomainError(CodeProvisioningFailed, e.Error())
}
