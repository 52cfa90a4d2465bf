package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
	"github.com/timmy/resumetailor/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubResumes struct {
	mu      sync.Mutex
	created []domain.Resume
}

func (s *stubResumes) Create(_ context.Context, resume *domain.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, *resume)
	return nil
}

type stubStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *stubStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *stubStorage) DownloadBytes(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *stubStorage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *stubStorage) EnsureBucket(_ context.Context) error {
	return nil
}

type stubJobSource struct {
	jobs []domain.JobPosting
	err  error
}

func (s *stubJobSource) GetSourceID() string    { return "stub" }
func (s *stubJobSource) GetDisplayName() string { return "Stub" }
func (s *stubJobSource) Search(_ context.Context, _, _ string, _ int) ([]domain.JobPosting, error) {
	return s.jobs, s.err
}

func newUploadRouter() (*gin.Engine, *stubResumes) {
	resumes := &stubResumes{}
	uploads := service.NewUploadService(resumes, newStubStorage(),
		logger.New(&logger.Config{Level: "error", Output: io.Discard}),
		service.UploadConfig{})
	h := NewResumeHandler(uploads, nil)

	r := gin.New()
	r.POST("/api/save-resume", h.SaveResume)
	return r, resumes
}

func TestSaveResumeEndpoint(t *testing.T) {
	r, resumes := newUploadRouter()

	payload := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 resume"))
	body, _ := json.Marshal(gin.H{
		"file_name": "resume.pdf",
		"file_data": "data:application/pdf;base64," + payload,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/save-resume", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["resume_id"])
	assert.Equal(t, "resume.pdf", resp["file_name"])

	require.Len(t, resumes.created, 1)
	assert.Equal(t, resp["resume_id"], resumes.created[0].ID)
}

func TestSaveResumeRejectsBadInput(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "missing fields", body: `{}`},
		{name: "not a data url", body: `{"file_name":"resume.pdf","file_data":"plain text"}`},
		{name: "unsupported type", body: `{"file_name":"resume.exe","file_data":"data:x;base64,aGk="}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newUploadRouter()
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/save-resume", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSearchEndpoint(t *testing.T) {
	h := NewJobsHandler(&stubJobSource{jobs: []domain.JobPosting{
		{Title: "Backend Engineer", Company: "Acme", Description: "Go services"},
	}})
	r := gin.New()
	r.GET("/api/search", h.Search)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?query=golang&limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Source string              `json:"source"`
		Jobs   []domain.JobPosting `json:"jobs"`
		Total  int                 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "stub", resp.Source)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "Acme", resp.Jobs[0].Company)
}

func TestSearchEndpointValidation(t *testing.T) {
	h := NewJobsHandler(&stubJobSource{})
	r := gin.New()
	r.GET("/api/search", h.Search)

	for _, target := range []string{"/api/search", "/api/search?query=go&limit=zero", "/api/search?query=go&limit=0"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestSearchEndpointBackendFailure(t *testing.T) {
	h := NewJobsHandler(&stubJobSource{err: &domain.BackendError{Status: 503, Message: "listings API down"}})
	r := gin.New()
	r.GET("/api/search", h.Search)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?query=go", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWriteErrorMapping(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: domain.ErrNotFound, want: http.StatusNotFound},
		{name: "run active", err: domain.ErrRunActive, want: http.StatusConflict},
		{name: "not downloadable", err: domain.ErrNotDownloadable, want: http.StatusConflict},
		{name: "validation", err: domain.NewValidationError("field", "bad"), want: http.StatusBadRequest},
		{name: "backend", err: &domain.BackendError{Status: 500, Message: "upstream"}, want: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			writeError(c, tc.err)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
