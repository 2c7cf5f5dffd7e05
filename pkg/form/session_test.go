package form_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-onboarding/pkg/client"
	"github.com/goliatone/go-onboarding/pkg/form"
	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
	"github.com/goliatone/go-onboarding/pkg/testsupport"
	"github.com/goliatone/go-onboarding/pkg/validation"
)

const (
	testDebounce = 20 * time.Millisecond
	testWindow   = 80 * time.Millisecond
)

func newSession(t *testing.T, api *testsupport.FakeAPI) *form.Session {
	t.Helper()
	c, err := client.New(api.URL)
	require.NoError(t, err)

	s := form.New(c, c,
		form.WithDebounce(testDebounce),
		form.WithSuccessWindow(testWindow),
		form.WithLogger(logger.NewTestLogger(t)),
	)
	t.Cleanup(s.Close)
	return s
}

func fill(s *form.Session, data model.FormData) {
	for _, field := range model.Fields {
		s.FieldChanged(field, data.Get(field))
		s.FieldBlurred(field)
	}
}

func settle(t *testing.T, s *form.Session) {
	t.Helper()
	require.NoError(t, s.Settle(testsupport.Context(t, 2*time.Second)))
}

func TestSubmit_ValidProfilePostedOnceThenFormResets(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	fill(s, testsupport.ValidProfile())
	settle(t, s)
	require.True(t, s.CanSubmit())
	require.True(t, s.View().Valid())

	require.NoError(t, s.Submit(context.Background()))

	testsupport.AssertEqual(t, []model.FormData{testsupport.ValidProfile()}, api.Profiles(t))

	view := s.View()
	assert.Equal(t, model.PhaseSuccess, view.Phase())
	assert.Equal(t, model.FormData{}, s.Data())
	for _, field := range model.Fields {
		fv := view.Field(field)
		assert.Empty(t, fv.Value, field)
		assert.Empty(t, fv.Error, field)
		assert.False(t, fv.Touched, field)
	}

	require.Eventually(t, func() bool {
		return s.View().Phase() == model.PhaseIdle
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, api.Profiles(t), 1)
}

func TestSubmit_InvalidFieldsSendNothing(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	s.FieldChanged(model.FieldPhone, "555-1234")
	err := s.Submit(context.Background())
	require.ErrorIs(t, err, form.ErrInvalid)

	view := s.View()
	assert.Equal(t, validation.MsgFirstNameRequired, view.FirstName.Error)
	assert.Equal(t, validation.MsgLastNameRequired, view.LastName.Error)
	assert.Equal(t, validation.MsgPhoneInvalid, view.Phone.Error)
	assert.Equal(t, validation.MsgCorporationRequired, view.CorporationNumber.Error)
	assert.True(t, view.FirstName.Touched)
	assert.False(t, view.Valid())
	assert.Equal(t, model.PhaseIdle, view.Phase())

	time.Sleep(3 * testDebounce)
	assert.Empty(t, api.Requests())
}

func TestSubmit_WithheldWhileCorporationCheckInFlight(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	entered, release := api.HoldLookups()
	s := newSession(t, api)

	fill(s, testsupport.ValidProfile())
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("lookup never issued")
	}
	assert.True(t, s.View().CorporationNumber.Validating)
	assert.False(t, s.CanSubmit())

	assert.ErrorIs(t, s.Submit(context.Background()), form.ErrValidationPending)
	assert.Empty(t, api.Profiles(t))
	assert.Equal(t, model.SubmissionState{}, s.View().Submission)

	release()
	settle(t, s)
	require.NoError(t, s.Submit(context.Background()))
	assert.Len(t, api.Profiles(t), 1)
}

func TestSubmit_UncheckedCorporationNumberIsQueued(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	profile := testsupport.ValidProfile()
	for _, field := range model.Fields {
		s.FieldChanged(field, profile.Get(field))
	}
	assert.Empty(t, api.Lookups(), "untouched field is not checked remotely")

	assert.ErrorIs(t, s.Submit(context.Background()), form.ErrValidationPending)
	settle(t, s)
	assert.Equal(t, []string{testsupport.ValidCorporationNumber}, api.Lookups())

	require.NoError(t, s.Submit(context.Background()))
}

func TestSubmit_RemoteRejectionWithholds(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	profile := testsupport.ValidProfile()
	profile.CorporationNumber = "987654321"
	fill(s, profile)
	settle(t, s)

	view := s.View()
	assert.Equal(t, "Invalid corporation number", view.CorporationNumber.Error)
	assert.False(t, view.CorporationNumber.Validating)

	assert.ErrorIs(t, s.Submit(context.Background()), form.ErrRemoteInvalid)
	assert.Empty(t, api.Profiles(t))
	assert.Equal(t, model.PhaseIdle, s.View().Phase())
}

func TestSubmit_ServiceFailureShowsMessage(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	api.OnProfile(func(model.FormData) testsupport.Response {
		return testsupport.Response{Status: http.StatusBadRequest, Body: map[string]string{"message": "Invalid phone number"}}
	})
	s := newSession(t, api)

	fill(s, testsupport.ValidProfile())
	settle(t, s)

	require.Error(t, s.Submit(context.Background()))
	view := s.View()
	assert.Equal(t, model.PhaseError, view.Phase())
	assert.Equal(t, "Invalid phone number", view.Submission.Error)
	assert.Equal(t, testsupport.ValidProfile(), s.Data(), "failed submission keeps the values")
}

func TestCorporationNumber_SchemaErrorWinsOverRemote(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	s.FieldChanged(model.FieldCorporationNumber, "987654321")
	s.FieldBlurred(model.FieldCorporationNumber)
	settle(t, s)
	require.Equal(t, "Invalid corporation number", s.View().CorporationNumber.Error)

	s.FieldChanged(model.FieldCorporationNumber, "12345")
	settle(t, s)
	assert.Equal(t, validation.MsgCorporationLength, s.View().CorporationNumber.Error)

	s.FieldChanged(model.FieldCorporationNumber, "12345678a")
	settle(t, s)
	assert.Equal(t, validation.MsgCorporationDigits, s.View().CorporationNumber.Error)

	assert.Equal(t, []string{"987654321", "12345678a"}, api.Lookups())
}

func TestCorporationNumber_RapidEditsCoalesce(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	s.FieldBlurred(model.FieldCorporationNumber)
	for _, number := range []string{"987654320", "987654321", "123456789"} {
		s.FieldChanged(model.FieldCorporationNumber, number)
	}
	settle(t, s)

	assert.Equal(t, []string{"123456789"}, api.Lookups())
	assert.Empty(t, s.View().CorporationNumber.Error)
}

func TestFieldChanged_LiveFeedback(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	s.FieldChanged(model.FieldFirstName, "J")
	assert.Empty(t, s.View().FirstName.Error)
	assert.False(t, s.View().FirstName.Touched)

	s.FieldChanged(model.FieldFirstName, "")
	assert.Equal(t, validation.MsgFirstNameRequired, s.View().FirstName.Error)

	s.FieldBlurred(model.FieldFirstName)
	assert.True(t, s.View().FirstName.Touched)
}

func TestSubscribe_ReceivesViews(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	var mu sync.Mutex
	var phases []model.Phase
	s.Subscribe(func(v form.View) {
		mu.Lock()
		phases = append(phases, v.Phase())
		mu.Unlock()
	})

	fill(s, testsupport.ValidProfile())
	settle(t, s)
	require.NoError(t, s.Submit(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, phases, model.PhaseSubmitting)
	assert.Contains(t, phases, model.PhaseSuccess)
}

func TestClose_StopsEverything(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	s := newSession(t, api)

	var calls atomic.Int32
	s.Subscribe(func(form.View) { calls.Add(1) })

	s.FieldBlurred(model.FieldCorporationNumber)
	s.FieldChanged(model.FieldCorporationNumber, "123456789")
	s.Close()
	before := calls.Load()

	time.Sleep(3 * testDebounce)
	assert.Empty(t, api.Lookups())
	assert.Equal(t, before, calls.Load())
	assert.ErrorIs(t, s.Submit(context.Background()), form.ErrClosed)
}

type recordingLogger struct {
	mu       *sync.Mutex
	messages *[]string
}

func newRecordingLogger() recordingLogger {
	return recordingLogger{mu: &sync.Mutex{}, messages: &[]string{}}
}

func (l recordingLogger) record(msg string) {
	l.mu.Lock()
	*l.messages = append(*l.messages, msg)
	l.mu.Unlock()
}

func (l recordingLogger) seen() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), *l.messages...)
}

func (l recordingLogger) Debug(msg string, _ map[string]any) { l.record(msg) }
func (l recordingLogger) Info(msg string, _ map[string]any)  { l.record(msg) }
func (l recordingLogger) Warn(msg string, _ map[string]any)  { l.record(msg) }
func (l recordingLogger) Error(msg string, _ map[string]any) { l.record(msg) }
func (l recordingLogger) With(map[string]any) logger.Logger  { return l }
func (l recordingLogger) WithError(error) logger.Logger      { return l }

func TestWithLogger_AcceptsCallerImplementation(t *testing.T) {
	api := testsupport.NewFakeAPI(t)
	c, err := client.New(api.URL)
	require.NoError(t, err)

	rec := newRecordingLogger()
	s := form.New(c, c, form.WithDebounce(testDebounce), form.WithLogger(rec))
	t.Cleanup(s.Close)

	fill(s, testsupport.ValidProfile())
	settle(t, s)
	require.NoError(t, s.Submit(context.Background()))

	assert.Contains(t, rec.seen(), "profile submitted, form reset")
}
