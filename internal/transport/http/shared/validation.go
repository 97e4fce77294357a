package shared

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"planivo/internal/transport/http/api"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidateStruct runs the struct tags and, on failure, writes a 400 with the
// field-level issues. Returns false when the request has been answered.
func ValidateStruct(w http.ResponseWriter, payload any, requestID string) bool {
	err := validate.Struct(payload)
	if err == nil {
		return true
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return false
	}

	var issues []ValidationIssue
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			issues = append(issues, ValidationIssue{
				Field:  strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
				Reason: "failed " + fe.Tag() + " validation",
			})
		}
	}
	api.FailWith(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", issues, requestID)
	return false
}
