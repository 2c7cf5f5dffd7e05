package model

// Field identifies one of the onboarding form inputs. The value doubles as the
// JSON key used on the wire.
type Field string

const (
	FieldFirstName         Field = "firstName"
	FieldLastName          Field = "lastName"
	FieldPhone             Field = "phone"
	FieldCorporationNumber Field = "corporationNumber"
)

// Fields lists the form inputs in display order.
var Fields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldPhone,
	FieldCorporationNumber,
}

// ParseField resolves a JSON key into a Field.
func ParseField(key string) (Field, bool) {
	for _, field := range Fields {
		if string(field) == key {
			return field, true
		}
	}
	return "", false
}

// String returns the wire key.
func (f Field) String() string {
	return string(f)
}

// Label returns the human label associated with the input.
func (f Field) Label() string {
	switch f {
	case FieldFirstName:
		return "First Name"
	case FieldLastName:
		return "Last Name"
	case FieldPhone:
		return "Phone Number"
	case FieldCorporationNumber:
		return "Corporation Number"
	default:
		return string(f)
	}
}

// FormData is the profile payload collected by the form. Struct tags match the
// profile-details request body exactly.
type FormData struct {
	FirstName         string `json:"firstName" yaml:"firstName"`
	LastName          string `json:"lastName" yaml:"lastName"`
	Phone             string `json:"phone" yaml:"phone"`
	CorporationNumber string `json:"corporationNumber" yaml:"corporationNumber"`
}

// Get returns the value stored for field.
func (d FormData) Get(field Field) string {
	switch field {
	case FieldFirstName:
		return d.FirstName
	case FieldLastName:
		return d.LastName
	case FieldPhone:
		return d.Phone
	case FieldCorporationNumber:
		return d.CorporationNumber
	default:
		return ""
	}
}

// Set stores value for field. Unknown fields are ignored.
func (d *FormData) Set(field Field, value string) {
	switch field {
	case FieldFirstName:
		d.FirstName = value
	case FieldLastName:
		d.LastName = value
	case FieldPhone:
		d.Phone = value
	case FieldCorporationNumber:
		d.CorporationNumber = value
	}
}

// ValidationState describes the remote corporation-number check. Error is
// always empty while Validating is true.
type ValidationState struct {
	Validating bool   `json:"validating"`
	Error      string `json:"error,omitempty"`
}

// Phase enumerates the submission lifecycle as seen by the presentation layer.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// SubmissionState tracks the profile submission. Submitting and Success are
// never true at the same time.
type SubmissionState struct {
	Submitting bool   `json:"submitting"`
	Error      string `json:"error,omitempty"`
	Success    bool   `json:"success"`
}

// Phase collapses the flags into a single lifecycle value.
func (s SubmissionState) Phase() Phase {
	switch {
	case s.Submitting:
		return PhaseSubmitting
	case s.Success:
		return PhaseSuccess
	case s.Error != "":
		return PhaseError
	default:
		return PhaseIdle
	}
}
