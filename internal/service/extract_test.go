package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/resumetailor/internal/domain"
	"github.com/timmy/resumetailor/internal/logger"
)

type memResumeStore struct {
	mu          sync.Mutex
	resume      *domain.Resume
	extractions map[string]domain.Extraction
}

func newMemResumeStore(resume *domain.Resume) *memResumeStore {
	return &memResumeStore{
		resume: resume,
		extractions: map[string]domain.Extraction{
			resume.ID: {ResumeID: resume.ID, Status: domain.ExtractionStatusPending},
		},
	}
}

func (s *memResumeStore) GetByID(_ context.Context, id string) (*domain.Resume, error) {
	if s.resume == nil || s.resume.ID != id {
		return nil, domain.ErrNotFound
	}
	copy := *s.resume
	return &copy, nil
}

func (s *memResumeStore) GetExtraction(_ context.Context, resumeID string) (*domain.Extraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	extraction, ok := s.extractions[resumeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &extraction, nil
}

func (s *memResumeStore) UpdateExtraction(_ context.Context, extraction *domain.Extraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractions[extraction.ResumeID] = *extraction
	return nil
}

type fakeParser struct {
	result string
	err    error
}

func (p *fakeParser) ParseResume(_ context.Context, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.result, nil
}

// gatedParser blocks every parse until released, so callers can overlap
// deterministically.
type gatedParser struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	result  string
}

func (p *gatedParser) ParseResume(_ context.Context, _ string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	<-p.release
	return p.result, nil
}

func (p *gatedParser) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func waitExtraction(t *testing.T, store *memResumeStore, resumeID string) *domain.Extraction {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		extraction, err := store.GetExtraction(context.Background(), resumeID)
		require.NoError(t, err)
		switch extraction.Status {
		case domain.ExtractionStatusCompleted, domain.ExtractionStatusFailed:
			return extraction
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("extraction did not reach a terminal status in time")
	return nil
}

func newExtractFixture(t *testing.T, parser Parser) (*ExtractService, *memResumeStore) {
	t.Helper()
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Jane Doe, Engineer</w:t></w:r></w:p></w:body></w:document>`

	objects := newMemStorage()
	require.NoError(t, objects.Upload(context.Background(), "resumes/r1/resume.docx",
		bytes.NewReader(buildDocx(t, docXML)), 0, "application/octet-stream"))

	store := newMemResumeStore(&domain.Resume{
		ID:           "r1",
		OriginalName: "resume.docx",
		StorageKey:   "resumes/r1/resume.docx",
	})

	svc := NewExtractService(store, objects, parser,
		logger.New(&logger.Config{Level: "error", Output: io.Discard}))
	return svc, store
}

func TestExtractionCompletes(t *testing.T) {
	svc, store := newExtractFixture(t, &fakeParser{result: `{"contact_info":{"name":"Jane Doe"}}`})

	extraction, err := svc.Start(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusProcessing, extraction.Status)

	final := waitExtraction(t, store, "r1")
	assert.Equal(t, domain.ExtractionStatusCompleted, final.Status)
	assert.Equal(t, `{"contact_info":{"name":"Jane Doe"}}`, final.ExtractedData)
	assert.Empty(t, final.ErrorMessage)
	require.NotNil(t, final.CompletedAt)
}

func TestExtractionFailureRecorded(t *testing.T) {
	svc, store := newExtractFixture(t, &fakeParser{err: errors.New("parser exploded")})

	_, err := svc.Start(context.Background(), "r1")
	require.NoError(t, err)

	final := waitExtraction(t, store, "r1")
	assert.Equal(t, domain.ExtractionStatusFailed, final.Status)
	assert.Contains(t, final.ErrorMessage, "parser exploded")
	assert.Empty(t, final.ExtractedData)
}

func TestExtractionRestartAfterFailure(t *testing.T) {
	parser := &fakeParser{err: errors.New("parser exploded")}
	svc, store := newExtractFixture(t, parser)

	_, err := svc.Start(context.Background(), "r1")
	require.NoError(t, err)
	waitExtraction(t, store, "r1")

	// A failed extraction can be restarted once the parser recovers
	parser.err = nil
	parser.result = `{"contact_info":{"name":"Jane Doe"}}`

	_, err = svc.Start(context.Background(), "r1")
	require.NoError(t, err)

	final := waitExtraction(t, store, "r1")
	assert.Equal(t, domain.ExtractionStatusCompleted, final.Status)
	assert.Empty(t, final.ErrorMessage)
}

func TestConcurrentStartRunsSingleExtraction(t *testing.T) {
	parser := &gatedParser{
		release: make(chan struct{}),
		result:  `{"contact_info":{"name":"Jane Doe"}}`,
	}
	svc, store := newExtractFixture(t, parser)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			extraction, err := svc.Start(context.Background(), "r1")
			assert.NoError(t, err)
			assert.Equal(t, domain.ExtractionStatusProcessing, extraction.Status)
		}()
	}
	wg.Wait()
	close(parser.release)

	final := waitExtraction(t, store, "r1")
	assert.Equal(t, domain.ExtractionStatusCompleted, final.Status)
	assert.Equal(t, 1, parser.callCount())
}

func TestExtractionUnknownResume(t *testing.T) {
	svc, _ := newExtractFixture(t, &fakeParser{result: "{}"})
	_, err := svc.Start(context.Background(), "no-such-resume")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Status(context.Background(), "no-such-resume")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
