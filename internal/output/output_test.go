package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"":      FormatPretty,
		"JSON":  FormatJSON,
		" yaml": FormatYAML,
		"yml":   FormatYAML,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestWrite(t *testing.T) {
	result := CheckResult{CorporationNumber: "987654321", Valid: false, Message: "Invalid corporation number"}

	cases := []struct {
		format Format
		want   string
	}{
		{
			format: FormatJSON,
			want: `{
  "corporationNumber": "987654321",
  "valid": false,
  "message": "Invalid corporation number"
}
`,
		},
		{
			format: FormatYAML,
			want: `corporationNumber: "987654321"
valid: false
message: Invalid corporation number
`,
		},
		{
			format: FormatPretty,
			want: `corporationNumber=987654321
message=Invalid corporation number
valid=false
`,
		},
	}
	for _, tc := range cases {
		t.Run(string(tc.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tc.format, result); err != nil {
				t.Fatalf("write: %v", err)
			}
			if diff := cmp.Diff(tc.want, buf.String()); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite_PrettyNested(t *testing.T) {
	result := SubmitResult{
		Profile: model.FormData{FirstName: "John"},
		Errors: FieldErrors(validation.Errors{
			model.FieldPhone: validation.MsgPhoneRequired,
		}),
	}
	var buf bytes.Buffer
	if err := Write(&buf, FormatPretty, result); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `errors.phone=Phone number is required
profile.corporationNumber=
profile.firstName=John
profile.lastName=
profile.phone=
submitted=false
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, Format("xml"), nil); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFieldErrors_Empty(t *testing.T) {
	if got := FieldErrors(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}
