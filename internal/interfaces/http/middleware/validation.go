package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidators = sync.OnceFunc(func() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(fieldName)
	_ = v.RegisterValidation("entity_type", func(fl validator.FieldLevel) bool {
		t, ok := provisioning.NormalizeEntityType(fl.Field().String())
		return ok && t.IsSupported()
	})
})

// SetupValidator makes gin report fields by their JSON (or form) name and
// registers the entity_type tag. It is idempotent.
func SetupValidator() { registerValidators() }

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// HandleValidationError answers a failed bind with 400. Malformed bodies are
// ERR_INVALID_JSON; rule violations are ERR_VALIDATION with one detail per field.
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is not valid JSON: "+err.Error(), requestID)
	}
	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: describe(fe), Code: fe.Tag()}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

var messages = map[string]func(validator.FieldError) string{
	"required": func(validator.FieldError) string { return "This field is required" },
	"uuid":     func(validator.FieldError) string { return "Invalid UUID format" },
	"oneof":    func(fe validator.FieldError) string { return "Must be one of: " + fe.Param() },
	"min":      func(fe validator.FieldError) string { return bound("least", fe) },
	"max":      func(fe validator.FieldError) string { return bound("most", fe) },
	"entity_type": func(validator.FieldError) string {
		names := make([]string, len(provisioning.SupportedEntityTypes))
		for i, t := range provisioning.SupportedEntityTypes {
			names[i] = t.String()
		}
		return "Must be a supported entity type: " + strings.Join(names, ", ")
	},
}

func bound(which string, fe validator.FieldError) string {
	msg := "Must be at " + which + " " + fe.Param()
	if fe.Kind() == reflect.String {
		msg += " characters"
	}
	return msg
}

func describe(fe validator.FieldError) string {
	if m, ok := messages[fe.Tag()]; ok {
		return m(fe)
	}
	return "Invalid value"
}
