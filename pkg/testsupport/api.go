package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-onboarding/pkg/model"
)

// Request is one call observed by FakeAPI.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response is a canned reply.
type Response struct {
	Status int
	Body   any
}

// FakeAPI is an httptest server speaking the onboarding API. Lookups accept
// ValidCorporationNumber and reject everything else with the hosted service's
// message; profile writes answer 200. Both can be overridden per test.
type FakeAPI struct {
	*httptest.Server

	mu          sync.Mutex
	requests    []Request
	lookup      func(number string) Response
	profile     func(data model.FormData) Response
	lookupGate  chan struct{}
	lookupEnter chan string
	releases    []func()
}

// NewFakeAPI starts a server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	api := &FakeAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(func() {
		api.mu.Lock()
		releases := api.releases
		api.mu.Unlock()
		for _, release := range releases {
			release()
		}
		api.Close()
	})
	return api
}

// OnLookup replaces the corporation lookup responder.
func (a *FakeAPI) OnLookup(fn func(number string) Response) {
	a.mu.Lock()
	a.lookup = fn
	a.mu.Unlock()
}

// OnProfile replaces the profile write responder.
func (a *FakeAPI) OnProfile(fn func(data model.FormData) Response) {
	a.mu.Lock()
	a.profile = fn
	a.mu.Unlock()
}

// HoldLookups makes lookups block until the returned release func is called.
// Each blocked lookup reports its number on the returned channel.
func (a *FakeAPI) HoldLookups() (entered <-chan string, release func()) {
	gate := make(chan struct{})
	enter := make(chan string, 16)
	var once sync.Once
	release = func() {
		once.Do(func() { close(gate) })
	}

	a.mu.Lock()
	a.lookupGate = gate
	a.lookupEnter = enter
	a.releases = append(a.releases, release)
	a.mu.Unlock()
	return enter, release
}

// Requests returns every request received so far.
func (a *FakeAPI) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

// Profiles decodes the body of every profile write received so far.
func (a *FakeAPI) Profiles(t *testing.T) []model.FormData {
	t.Helper()
	var out []model.FormData
	for _, req := range a.Requests() {
		if req.Method != http.MethodPost || req.Path != "/profile-details" {
			continue
		}
		var data model.FormData
		if err := json.Unmarshal(req.Body, &data); err != nil {
			t.Fatalf("decode profile body: %v", err)
		}
		out = append(out, data)
	}
	return out
}

// Lookups lists the corporation numbers looked up so far.
func (a *FakeAPI) Lookups() []string {
	var out []string
	for _, req := range a.Requests() {
		if number, ok := strings.CutPrefix(req.Path, "/corporation-number/"); ok && req.Method == http.MethodGet {
			out = append(out, number)
		}
	}
	return out
}

func (a *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	a.mu.Lock()
	a.requests = append(a.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	lookup, profile := a.lookup, a.profile
	gate, enter := a.lookupGate, a.lookupEnter
	a.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/corporation-number/"):
		number := strings.TrimPrefix(r.URL.Path, "/corporation-number/")
		if gate != nil {
			enter <- number
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if lookup == nil {
			lookup = defaultLookup
		}
		writeJSON(w, lookup(number))

	case r.Method == http.MethodPost && r.URL.Path == "/profile-details":
		var data model.FormData
		if err := json.Unmarshal(body, &data); err != nil {
			writeJSON(w, Response{Status: http.StatusBadRequest, Body: map[string]string{"message": "Invalid request body"}})
			return
		}
		if profile == nil {
			profile = func(model.FormData) Response { return Response{Status: http.StatusOK} }
		}
		writeJSON(w, profile(data))

	default:
		http.NotFound(w, r)
	}
}

func defaultLookup(number string) Response {
	if number == ValidCorporationNumber {
		return Response{Status: http.StatusOK, Body: map[string]any{"corporationNumber": number, "valid": true}}
	}
	return Response{Status: http.StatusOK, Body: map[string]any{"valid": false, "message": "Invalid corporation number"}}
}

func writeJSON(w http.ResponseWriter, resp Response) {
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.Body == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
