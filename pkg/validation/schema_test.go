package validation_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

func validData() model.FormData {
	return model.FormData{
		FirstName:         "John",
		LastName:          "Doe",
		Phone:             "+13062776103",
		CorporationNumber: "123456789",
	}
}

func TestValidate_ValidForm(t *testing.T) {
	if errs := validation.Validate(validData()); errs != nil {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	cases := []struct {
		name  string
		clear []model.Field
		want  validation.Errors
	}{
		{
			name:  "all empty",
			clear: model.Fields,
			want: validation.Errors{
				model.FieldFirstName:         validation.MsgFirstNameRequired,
				model.FieldLastName:          validation.MsgLastNameRequired,
				model.FieldPhone:             validation.MsgPhoneRequired,
				model.FieldCorporationNumber: validation.MsgCorporationRequired,
			},
		},
		{
			name:  "names only",
			clear: []model.Field{model.FieldFirstName, model.FieldLastName},
			want: validation.Errors{
				model.FieldFirstName: validation.MsgFirstNameRequired,
				model.FieldLastName:  validation.MsgLastNameRequired,
			},
		},
		{
			name:  "phone only",
			clear: []model.Field{model.FieldPhone},
			want: validation.Errors{
				model.FieldPhone: validation.MsgPhoneRequired,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := validData()
			for _, field := range tc.clear {
				data.Set(field, "")
			}
			if diff := cmp.Diff(tc.want, validation.Validate(data)); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidate_NameLength(t *testing.T) {
	data := validData()
	data.FirstName = strings.Repeat("a", 50)
	data.LastName = strings.Repeat("é", 50)
	if errs := validation.Validate(data); errs != nil {
		t.Fatalf("50 characters should pass, got %v", errs)
	}

	data.FirstName = strings.Repeat("a", 51)
	data.LastName = strings.Repeat("b", 51)
	want := validation.Errors{
		model.FieldFirstName: validation.MsgFirstNameTooLong,
		model.FieldLastName:  validation.MsgLastNameTooLong,
	}
	if diff := cmp.Diff(want, validation.Validate(data)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateField_Phone(t *testing.T) {
	cases := []struct {
		phone string
		want  string
	}{
		{phone: "+13062776103", want: ""},
		{phone: "+1 306 277 6103", want: ""},
		{phone: "\t+1306 2776103 ", want: ""},
		{phone: "1234567890", want: validation.MsgPhoneInvalid},
		{phone: "+11062776103", want: validation.MsgPhoneInvalid},
		{phone: "+1306277610", want: validation.MsgPhoneInvalid},
		{phone: "+130627761033", want: validation.MsgPhoneInvalid},
		{phone: "+44306277610", want: validation.MsgPhoneInvalid},
		{phone: "", want: validation.MsgPhoneRequired},
	}
	for _, tc := range cases {
		data := validData()
		data.Phone = tc.phone
		if got := validation.ValidateField(data, model.FieldPhone); got != tc.want {
			t.Fatalf("phone %q: want %q got %q", tc.phone, tc.want, got)
		}
	}
}

func TestValidateField_CorporationNumber(t *testing.T) {
	cases := []struct {
		number string
		want   string
	}{
		{number: "123456789", want: ""},
		{number: "12345", want: validation.MsgCorporationLength},
		{number: "1234567890", want: validation.MsgCorporationLength},
		{number: "12345678a", want: validation.MsgCorporationDigits},
		{number: "", want: validation.MsgCorporationRequired},
	}
	for _, tc := range cases {
		data := validData()
		data.CorporationNumber = tc.number
		if got := validation.ValidateField(data, model.FieldCorporationNumber); got != tc.want {
			t.Fatalf("number %q: want %q got %q", tc.number, tc.want, got)
		}
	}
}

func TestErrors_OrderAndMessage(t *testing.T) {
	errs := validation.Errors{
		model.FieldCorporationNumber: validation.MsgCorporationLength,
		model.FieldFirstName:         validation.MsgFirstNameRequired,
	}
	wantOrder := []model.Field{model.FieldFirstName, model.FieldCorporationNumber}
	if diff := cmp.Diff(wantOrder, errs.Fields()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	want := "firstName: First name is required; corporationNumber: Corporation number must be exactly 9 digits"
	if got := errs.Error(); got != want {
		t.Fatalf("message: %q", got)
	}
	if got := errs.Get(model.FieldPhone); got != "" {
		t.Fatalf("phone should be valid, got %q", got)
	}
}

func TestNormalizePhone(t *testing.T) {
	if got := validation.NormalizePhone(" +1 306\t277 6103\n"); got != "+13062776103" {
		t.Fatalf("normalize: %q", got)
	}
}
