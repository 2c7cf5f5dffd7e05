package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-onboarding/pkg/model"
)

// ValidCorporationNumber is accepted by FakeAPI unless overridden.
const ValidCorporationNumber = "123456789"

// ValidProfile returns a profile that passes every field rule.
func ValidProfile() model.FormData {
	return model.FormData{
		FirstName:         "John",
		LastName:          "Doe",
		Phone:             "+13062776103",
		CorporationNumber: ValidCorporationNumber,
	}
}

// Context returns a context that is canceled when the test ends or after
// timeout, whichever comes first.
func Context(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertEqual fails the test with a cmp diff when want and got differ.
func AssertEqual(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}
