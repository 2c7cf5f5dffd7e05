// Package model defines the onboarding form data shared by the validation,
// remote check, submission and session packages. Field values double as the
// JSON keys of the profile-details payload, so FormData can be posted as-is.
// ValidationState and SubmissionState are plain value snapshots; the packages
// that own them hand out copies and never share the underlying storage.
package model
