package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erp/provisioner/internal/domain/shared"
)

// NormalizeCode trims and upper-cases a natural-key code. Category and unit of
// measure codes are stored and looked up in this form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// validateCode checks a natural-key code: letters, digits, underscores and hyphens.
func validateCode(kind, code string, maxLen int) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", kind+" code cannot be empty")
	}
	if len(code) > maxLen {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%s code cannot exceed %d characters", kind, maxLen))
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_INPUT", kind+" code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateName(kind, name string, maxLen int) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", kind+" name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxLen {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%s name cannot exceed %d characters", kind, maxLen))
	}
	return nil
}
