package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-onboarding/pkg/model"
)

// Messages surfaced for local validation failures.
const (
	MsgFirstNameRequired   = "First name is required"
	MsgFirstNameTooLong    = "First name must be 50 characters or less"
	MsgLastNameRequired    = "Last name is required"
	MsgLastNameTooLong     = "Last name must be 50 characters or less"
	MsgPhoneRequired       = "Phone number is required"
	MsgPhoneInvalid        = "Please enter a valid Canadian phone number starting with +1"
	MsgCorporationRequired = "Corporation number is required"
	MsgCorporationLength   = "Corporation number must be exactly 9 digits"
	MsgCorporationDigits   = "Corporation number must contain only digits"
)

const (
	// NameMaxLength bounds first and last names, counted in characters.
	NameMaxLength = 50
	// CorporationNumberLength is the exact size of a corporation number.
	CorporationNumberLength = 9

	errCodeCanadianPhone = "validation_phone_canadian"
)

var (
	canadianPhonePattern = regexp.MustCompile(`^\+1[2-9]\d{9}$`)
	digitsPattern        = regexp.MustCompile(`^\d+$`)
)

// Errors maps each failing field to its message. Valid fields are absent.
type Errors map[model.Field]string

// Error joins the messages in display order so Errors can travel as an error.
func (e Errors) Error() string {
	if len(e) == 0 {
		return ""
	}
	parts := make([]string, 0, len(e))
	for _, field := range e.Fields() {
		parts = append(parts, field.String()+": "+e[field])
	}
	return strings.Join(parts, "; ")
}

// Get returns the message for field, empty when the field is valid.
func (e Errors) Get(field model.Field) string {
	if e == nil {
		return ""
	}
	return e[field]
}

// Fields returns the failing fields in display order; unknown keys sort last.
func (e Errors) Fields() []model.Field {
	if len(e) == 0 {
		return nil
	}
	order := make(map[model.Field]int, len(model.Fields))
	for i, field := range model.Fields {
		order[field] = i
	}
	out := make([]model.Field, 0, len(e))
	for field := range e {
		out = append(out, field)
	}
	sort.SliceStable(out, func(i, j int) bool {
		oi, iok := order[out[i]]
		oj, jok := order[out[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// Validate runs every field rule against data and returns the failures, or nil
// when the whole form passes. Each field reports its first failing rule.
func Validate(data model.FormData) Errors {
	err := ozzo.ValidateStruct(&data,
		ozzo.Field(&data.FirstName, Rules(model.FieldFirstName)...),
		ozzo.Field(&data.LastName, Rules(model.FieldLastName)...),
		ozzo.Field(&data.Phone, Rules(model.FieldPhone)...),
		ozzo.Field(&data.CorporationNumber, Rules(model.FieldCorporationNumber)...),
	)
	if err == nil {
		return nil
	}

	var fieldErrs ozzo.Errors
	if !errors.As(err, &fieldErrs) {
		// only reachable when a rule chain is miswired
		panic("validation: " + err.Error())
	}

	out := make(Errors, len(fieldErrs))
	for key, fieldErr := range fieldErrs {
		field, ok := model.ParseField(key)
		if !ok || fieldErr == nil {
			continue
		}
		out[field] = fieldErr.Error()
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateField checks a single field and returns its message, or an empty
// string when the value passes.
func ValidateField(data model.FormData, field model.Field) string {
	if err := ozzo.Validate(data.Get(field), Rules(field)...); err != nil {
		return err.Error()
	}
	return ""
}

// Rules returns the ordered rule chain for field.
func Rules(field model.Field) []ozzo.Rule {
	switch field {
	case model.FieldFirstName:
		return []ozzo.Rule{
			ozzo.Required.Error(MsgFirstNameRequired),
			ozzo.RuneLength(0, NameMaxLength).Error(MsgFirstNameTooLong),
		}
	case model.FieldLastName:
		return []ozzo.Rule{
			ozzo.Required.Error(MsgLastNameRequired),
			ozzo.RuneLength(0, NameMaxLength).Error(MsgLastNameTooLong),
		}
	case model.FieldPhone:
		return []ozzo.Rule{
			ozzo.Required.Error(MsgPhoneRequired),
			ozzo.By(canadianPhone),
		}
	case model.FieldCorporationNumber:
		return []ozzo.Rule{
			ozzo.Required.Error(MsgCorporationRequired),
			ozzo.RuneLength(CorporationNumberLength, CorporationNumberLength).Error(MsgCorporationLength),
			ozzo.Match(digitsPattern).Error(MsgCorporationDigits),
		}
	default:
		return nil
	}
}

// NormalizePhone strips all whitespace from a phone number.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

// IsCanadianPhone reports whether phone is a +1 number with a valid area code
// once whitespace is removed.
func IsCanadianPhone(phone string) bool {
	return canadianPhonePattern.MatchString(NormalizePhone(phone))
}

func canadianPhone(value any) error {
	phone, _ := value.(string)
	if IsCanadianPhone(phone) {
		return nil
	}
	return ozzo.NewError(errCodeCanadianPhone, MsgPhoneInvalid)
}
