package form

import (
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

// FieldView is everything the presentation layer needs for one input.
type FieldView struct {
	Label      string `json:"label" yaml:"label"`
	Value      string `json:"value" yaml:"value"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	Validating bool   `json:"validating,omitempty" yaml:"validating,omitempty"`
	Touched    bool   `json:"touched,omitempty" yaml:"touched,omitempty"`
}

// View is an immutable snapshot of the session.
type View struct {
	FirstName         FieldView             `json:"firstName" yaml:"firstName"`
	LastName          FieldView             `json:"lastName" yaml:"lastName"`
	Phone             FieldView             `json:"phone" yaml:"phone"`
	CorporationNumber FieldView             `json:"corporationNumber" yaml:"corporationNumber"`
	Submission        model.SubmissionState `json:"submission" yaml:"submission"`
}

// Field returns the view for field.
func (v View) Field(field model.Field) FieldView {
	switch field {
	case model.FieldFirstName:
		return v.FirstName
	case model.FieldLastName:
		return v.LastName
	case model.FieldPhone:
		return v.Phone
	case model.FieldCorporationNumber:
		return v.CorporationNumber
	default:
		return FieldView{}
	}
}

// Phase reports the submission lifecycle.
func (v View) Phase() model.Phase {
	return v.Submission.Phase()
}

// Valid reports whether no field currently shows an error.
func (v View) Valid() bool {
	for _, field := range model.Fields {
		if v.Field(field).Error != "" {
			return false
		}
	}
	return true
}

func buildView(data model.FormData, touched map[model.Field]bool, errs validation.Errors, remote model.ValidationState, sub model.SubmissionState) View {
	field := func(f model.Field) FieldView {
		return FieldView{
			Label:   f.Label(),
			Value:   data.Get(f),
			Error:   errs.Get(f),
			Touched: touched[f],
		}
	}

	corp := field(model.FieldCorporationNumber)
	// local rule failures win over the remote verdict
	if corp.Error == "" {
		corp.Error = remote.Error
	}
	corp.Validating = remote.Validating

	return View{
		FirstName:         field(model.FieldFirstName),
		LastName:          field(model.FieldLastName),
		Phone:             field(model.FieldPhone),
		CorporationNumber: corp,
		Submission:        sub,
	}
}
