package dto

import "net/http"

// API error codes. Domain codes are translated by NormalizeErrorCode.
const (
	ErrCodeInternal           = "ERR_INTERNAL"
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeBadRequest         = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput       = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON        = "ERR_INVALID_JSON"
	ErrCodePayloadTooLarge    = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeTimeout            = "ERR_TIMEOUT"
	ErrCodeNotFound           = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists      = "ERR_ALREADY_EXISTS"
	ErrCodeLockHeld           = "ERR_LOCK_HELD"
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeApplyInProgress    = "ERR_APPLY_IN_PROGRESS"
	ErrCodeProvisioningFailed = "ERR_PROVISIONING_FAILED"
)

var statusByCode = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeLockHeld:           http.StatusConflict,
	ErrCodeApplyInProgress:    http.StatusConflict,
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeProvisioningFailed: http.StatusUnprocessableEntity,
}

// apiCodeByDomainCode translates shared.DomainError codes
var apiCodeByDomainCode = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXISTS":      ErrCodeAlreadyExists,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_STATE":       ErrCodeInvalidState,
	"LOCK_HELD":           ErrCodeLockHeld,
	"APPLY_IN_PROGRESS":   ErrCodeApplyInProgress,
	"PROVISIONING_FAILED": ErrCodeProvisioningFailed,
}

// GetHTTPStatus returns the status for an API error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode translates a domain code to its API code. API codes and
// unknown codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := apiCodeByDomainCode[code]; ok {
		return apiCode
	}
	return code
}
