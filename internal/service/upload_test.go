package service

import (
	"context"
	"encoding/base64"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
)

type memResumes struct {
	mu      sync.Mutex
	resumes map[string]domain.Resume
	failing bool
}

func newMemResumes() *memResumes {
	return &memResumes{resumes: make(map[string]domain.Resume)}
}

func (s *memResumes) Create(_ context.Context, resume *domain.Resume) error {
	if s.failing {
		return assert.AnError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumes[resume.ID] = *resume
	return nil
}

func newTestUpload(resumes ResumeCreator, objects *memStorage) *UploadService {
	return NewUploadService(resumes, objects,
		logger.New(&logger.Config{Level: "error", Output: io.Discard}),
		UploadConfig{MaxSizeBytes: 1024, AllowedTypes: []string{".pdf", ".doc", ".docx"}})
}

func TestSaveStoresFileAndRecord(t *testing.T) {
	resumes := newMemResumes()
	objects := newMemStorage()
	svc := newTestUpload(resumes, objects)

	data := []byte("%PDF-1.4 fake resume content")
	resume, err := svc.Save(context.Background(), "My Resume.pdf", data)
	require.NoError(t, err)

	assert.Equal(t, "My Resume.pdf", resume.OriginalName)
	assert.Equal(t, int64(len(data)), resume.FileSize)
	assert.Equal(t, "application/pdf", resume.ContentType)
	assert.Equal(t, domain.ResumeStatusUploaded, resume.Status)

	stored, err := objects.DownloadBytes(context.Background(), resume.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	// Storage keys carry the sanitized name, not the raw one
	assert.True(t, strings.HasPrefix(resume.StorageKey, "resumes/"+resume.ID+"/"), resume.StorageKey)
	assert.NotContains(t, resume.StorageKey, " ")
}

func TestSaveValidation(t *testing.T) {
	testCases := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{name: "unsupported extension", fileName: "resume.txt", data: []byte("hello")},
		{name: "no extension", fileName: "resume", data: []byte("hello")},
		{name: "oversized file", fileName: "resume.pdf", data: make([]byte, 2048)},
		{name: "empty file", fileName: "resume.pdf", data: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestUpload(newMemResumes(), newMemStorage())
			_, err := svc.Save(context.Background(), tc.fileName, tc.data)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestSaveRollsBackStorageOnRecordFailure(t *testing.T) {
	resumes := newMemResumes()
	resumes.failing = true
	objects := newMemStorage()
	svc := newTestUpload(resumes, objects)

	_, err := svc.Save(context.Background(), "resume.pdf", []byte("content"))
	require.Error(t, err)

	objects.mu.Lock()
	defer objects.mu.Unlock()
	assert.Empty(t, objects.objects, "stored object must be rolled back")
}

func TestSaveDataURL(t *testing.T) {
	payload := []byte("%PDF-1.4 data url resume")
	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(payload)

	svc := newTestUpload(newMemResumes(), newMemStorage())
	resume, err := svc.SaveDataURL(context.Background(), "resume.pdf", dataURL)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), resume.FileSize)
}

func TestSaveDataURLMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		dataURL string
	}{
		{name: "not a data url", dataURL: "just some text"},
		{name: "missing base64 marker", dataURL: "data:application/pdf,plain"},
		{name: "invalid base64", dataURL: "data:application/pdf;base64,!!!not-base64!!!"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestUpload(newMemResumes(), newMemStorage())
			_, err := svc.SaveDataURL(context.Background(), "resume.pdf", tc.dataURL)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{in: "resume.pdf", want: "resume.pdf"},
		{in: "My Resume (final).pdf", want: "My_Resume__final_.pdf"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: "履歴書.pdf", want: "___.pdf"},
	}

	for _, tc := range testCases {
		if got := sanitizeFileName(tc.in); got != tc.want {
			t.Errorf("sanitizeFileName(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
