package output

import (
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

// CheckResult reports a corporation number lookup.
type CheckResult struct {
	CorporationNumber string `json:"corporationNumber" yaml:"corporationNumber"`
	Valid             bool   `json:"valid" yaml:"valid"`
	Message           string `json:"message,omitempty" yaml:"message,omitempty"`
}

// SubmitResult reports a non-interactive submission.
type SubmitResult struct {
	Submitted bool              `json:"submitted" yaml:"submitted"`
	Profile   model.FormData    `json:"profile" yaml:"profile"`
	Errors    map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Message   string            `json:"message,omitempty" yaml:"message,omitempty"`
}

// FieldErrors converts validation failures into a result-friendly map.
func FieldErrors(errs validation.Errors) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	out := make(map[string]string, len(errs))
	for field, msg := range errs {
		out[field.String()] = msg
	}
	return out
}
