package server

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/amalgamconnect/docqa/config"
	"github.com/amalgamconnect/docqa/llm"
	"github.com/amalgamconnect/docqa/qa"
	"github.com/amalgamconnect/docqa/sites"
)

// MockModel replays a fixed stream and counts calls.
type MockModel struct {
	Prompts   []string
	NewStream func() llm.Stream
	Err       error
}

func (m *MockModel) Generate(ctx context.Context, req llm.Request) (llm.Stream, error) {
	m.Prompts = append(m.Prompts, req.UserPrompt)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.NewStream(), nil
}

type MockGeocoder struct {
	Location *sites.Location
	Err      error
	Calls    int
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*sites.Location, error) {
	m.Calls++
	return m.Location, m.Err
}

func newTestServer(model *MockModel, geocoder sites.Geocoder, settings config.Settings) *Server {
	handler := qa.NewHandler(func(credential string) (llm.LLM, error) {
		return model, nil
	})
	return NewServer(handler, geocoder, settings)
}

type formFields struct {
	apiKey   string
	question string
	filename string
	content  string
}

func multipartRequest(t *testing.T, target string, f formFields) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField(fieldAPIKey, f.apiKey); err != nil {
		t.Fatalf("Failed to write field: %v", err)
	}
	if err := mw.WriteField(fieldQuestion, f.question); err != nil {
		t.Fatalf("Failed to write field: %v", err)
	}
	if f.filename != "" {
		part, err := mw.CreateFormFile(fieldFile, f.filename)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		part.Write([]byte(f.content))
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func completeModel(text string) *MockModel {
	return &MockModel{NewStream: func() llm.Stream { return llm.NewCompleteStream(text) }}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(completeModel("x"), nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestPage_QuestionDisabledWithoutDocument(t *testing.T) {
	srv := newTestServer(completeModel("x"), nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `placeholder="Can you give me a short summary?" disabled>`) {
		t.Error("Expected the question box to be disabled")
	}
	for _, want := range []string{"Amalgam Connect", "School A", "Gov Office", "Location not found"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected page to contain %q", want)
		}
	}
	if strings.Contains(body, "Upload it again") {
		t.Error("Expected no re-upload hint before any submit")
	}
}

func TestPage_ShowsGeocodedLocation(t *testing.T) {
	settings := config.WithDefaultSettings()
	settings.Geocoding.Enabled = true
	geocoder := &MockGeocoder{Location: &sites.Location{Latitude: 34.05, Longitude: -118.24}}
	srv := newTestServer(completeModel("x"), geocoder, settings)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if geocoder.Calls != 1 {
		t.Errorf("Expected one geocoding call, got %d", geocoder.Calls)
	}
	if !strings.Contains(rec.Body.String(), "Latitude: 34.05, Longitude: -118.24") {
		t.Error("Expected the geocoded location on the page")
	}
}

func TestPage_GeocodingDisabledSkipsLookup(t *testing.T) {
	geocoder := &MockGeocoder{Location: &sites.Location{Latitude: 1, Longitude: 2}}
	srv := newTestServer(completeModel("x"), geocoder, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if geocoder.Calls != 0 {
		t.Errorf("Expected no geocoding call, got %d", geocoder.Calls)
	}
}

func TestPageSubmit_MissingCredentialShowsNotice(t *testing.T) {
	model := completeModel("Blue.")
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/", formFields{
		question: "What color is the sky?", filename: "sky.txt", content: "The sky is blue.",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(model.Prompts) != 0 {
		t.Error("Expected no model call without a credential")
	}
	if !strings.Contains(rec.Body.String(), qa.CredentialNotice) {
		t.Error("Expected the credential notice on the page")
	}
}

func TestPageSubmit_RendersMarkdownAnswer(t *testing.T) {
	model := completeModel("The sky is **blue**.")
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/", formFields{
		apiKey: "key", question: "What color is the sky?", filename: "sky.md", content: "The sky is blue.",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(model.Prompts) != 1 {
		t.Fatalf("Expected exactly one model call, got %d", len(model.Prompts))
	}
	want := "Here's a document: The sky is blue. \n\n---\n\n What color is the sky?"
	if model.Prompts[0] != want {
		t.Errorf("Expected prompt %q, got %q", want, model.Prompts[0])
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>blue</strong>") {
		t.Error("Expected the answer rendered as markdown")
	}
	// The file input comes back empty, so the question waits for a new upload.
	if !strings.Contains(body, `placeholder="Can you give me a short summary?" disabled>What color is the sky?</textarea>`) {
		t.Error("Expected the question box disabled with the previous question kept")
	}
	if !strings.Contains(body, "Last upload: sky.md. Upload it again to ask another question.") {
		t.Error("Expected the re-upload hint")
	}
}

func TestPageSubmit_ModelErrorIsSurfaced(t *testing.T) {
	model := &MockModel{Err: errors.New("invalid api key")}
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/", formFields{
		apiKey: "bad", question: "q", filename: "sky.txt", content: "doc",
	}))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid api key") {
		t.Error("Expected the error on the page")
	}
}

func TestAsk_StreamsFragments(t *testing.T) {
	model := &MockModel{NewStream: func() llm.Stream { return llm.NewFragmentStream("Bl", "ue", ".") }}
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/ask", formFields{
		apiKey: "key", question: "What color is the sky?", filename: "sky.txt", content: "The sky is blue.",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "Blue." {
		t.Errorf("Expected %q, got %q", "Blue.", rec.Body.String())
	}
	if !rec.Flushed {
		t.Error("Expected fragments to be flushed")
	}
	if got := rec.Header().Get(stateHeader); got != qa.Answered.String() {
		t.Errorf("Expected state %s, got %s", qa.Answered, got)
	}
	if len(model.Prompts) != 1 {
		t.Errorf("Expected exactly one model call, got %d", len(model.Prompts))
	}
}

func TestAsk_MissingCredential(t *testing.T) {
	model := completeModel("Blue.")
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/ask", formFields{
		question: "q", filename: "sky.txt", content: "doc",
	}))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), qa.CredentialNotice) {
		t.Errorf("Expected credential notice, got %q", rec.Body.String())
	}
	if len(model.Prompts) != 0 {
		t.Error("Expected no model call")
	}
}

func TestAsk_NoDocumentIgnoresQuestion(t *testing.T) {
	model := completeModel("Blue.")
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/ask", formFields{
		apiKey: "key", question: "What color is the sky?",
	}))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", rec.Code)
	}
	if got := rec.Header().Get(stateHeader); got != qa.AwaitingDocument.String() {
		t.Errorf("Expected state %s, got %s", qa.AwaitingDocument, got)
	}
	if len(model.Prompts) != 0 {
		t.Error("Expected no model call without a document")
	}
}

func TestAsk_UnsupportedUpload(t *testing.T) {
	model := completeModel("Blue.")
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/ask", formFields{
		apiKey: "key", question: "q", filename: "report.pdf", content: "%PDF",
	}))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if len(model.Prompts) != 0 {
		t.Error("Expected no model call for an unsupported upload")
	}
}

func TestAsk_InvalidEncodingIsAFailure(t *testing.T) {
	model := completeModel("Blue.")
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/ask", formFields{
		apiKey: "key", question: "q", filename: "bad.txt", content: "\xff\xfe",
	}))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	if len(model.Prompts) != 0 {
		t.Error("Expected no model call for an undecodable upload")
	}
}

func TestAsk_ModelErrorBeforeOutput(t *testing.T) {
	model := &MockModel{Err: errors.New("network unreachable")}
	srv := newTestServer(model, nil, config.WithDefaultSettings())

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/ask", formFields{
		apiKey: "key", question: "q", filename: "sky.txt", content: "doc",
	}))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "network unreachable") {
		t.Errorf("Expected the error in the body, got %q", rec.Body.String())
	}
}
