package domain

import (
	"errors"
	"testing"
)

// TestRecordLifecycle verifies the legal status transitions of a record.
func TestRecordLifecycle(t *testing.T) {
	rec := TailoringRecord{Status: RecordStatusPending}

	if err := rec.Begin(); err != nil {
		t.Fatalf("Begin from pending: %v", err)
	}
	if rec.Status != RecordStatusProcessing {
		t.Errorf("Status after Begin: got %s, want %s", rec.Status, RecordStatusProcessing)
	}
	if rec.StartedAt == nil {
		t.Error("StartedAt not stamped by Begin")
	}

	if err := rec.Advance(60); err != nil {
		t.Fatalf("Advance while processing: %v", err)
	}
	if rec.Progress != 60 {
		t.Errorf("Progress: got %d, want 60", rec.Progress)
	}

	if err := rec.Complete("tailored/run/rec.json"); err != nil {
		t.Fatalf("Complete from processing: %v", err)
	}
	if rec.Status != RecordStatusCompleted {
		t.Errorf("Status after Complete: got %s, want %s", rec.Status, RecordStatusCompleted)
	}
	if rec.Progress != 100 {
		t.Errorf("Progress after Complete: got %d, want 100", rec.Progress)
	}
	if rec.CompletedAt == nil {
		t.Error("CompletedAt not stamped by Complete")
	}
}

// TestRecordIllegalTransitions verifies that transitions outside the
// lifecycle are rejected.
func TestRecordIllegalTransitions(t *testing.T) {
	testCases := []struct {
		name string
		run  func() error
	}{
		{
			name: "begin from processing",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusProcessing}
				return rec.Begin()
			},
		},
		{
			name: "begin from completed",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusCompleted}
				return rec.Begin()
			},
		},
		{
			name: "advance from pending",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusPending}
				return rec.Advance(10)
			},
		},
		{
			name: "advance backwards",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusProcessing, Progress: 60}
				return rec.Advance(25)
			},
		},
		{
			name: "advance to 100",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusProcessing, Progress: 90}
				return rec.Advance(100)
			},
		},
		{
			name: "complete from pending",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusPending}
				return rec.Complete("key")
			},
		},
		{
			name: "complete from failed",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusFailed}
				return rec.Complete("key")
			},
		},
		{
			name: "fail from completed",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusCompleted}
				return rec.Fail("boom")
			},
		},
		{
			name: "fail from failed",
			run: func() error {
				rec := TailoringRecord{Status: RecordStatusFailed}
				return rec.Fail("boom")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("got %v, want ErrInvalidTransition", err)
			}
		})
	}
}

// TestRecordCompleteRequiresArtifact verifies completion without an artifact
// key is rejected.
func TestRecordCompleteRequiresArtifact(t *testing.T) {
	rec := TailoringRecord{Status: RecordStatusProcessing}
	err := rec.Complete("")
	if !IsValidation(err) {
		t.Errorf("got %v, want a validation error", err)
	}
	if rec.Status != RecordStatusProcessing {
		t.Errorf("rejected completion must not change status, got %s", rec.Status)
	}
}

// TestRecordFailFromPending verifies an abandoned queue entry can be failed
// directly from pending.
func TestRecordFailFromPending(t *testing.T) {
	rec := TailoringRecord{Status: RecordStatusPending}
	if err := rec.Fail("run canceled"); err != nil {
		t.Fatalf("Fail from pending: %v", err)
	}
	if rec.Status != RecordStatusFailed {
		t.Errorf("Status: got %s, want %s", rec.Status, RecordStatusFailed)
	}
	if rec.ErrorMessage != "run canceled" {
		t.Errorf("ErrorMessage: got %q", rec.ErrorMessage)
	}
}

// TestOverallProgress verifies the aggregate is the arithmetic mean.
func TestOverallProgress(t *testing.T) {
	testCases := []struct {
		name     string
		progress []int
		want     int
	}{
		{name: "empty", progress: nil, want: 0},
		{name: "all pending", progress: []int{0, 0, 0}, want: 0},
		{name: "one done one fresh", progress: []int{100, 0}, want: 50},
		{name: "mixed", progress: []int{100, 60, 20}, want: 60},
		{name: "truncating mean", progress: []int{100, 0, 0}, want: 33},
		{name: "all complete", progress: []int{100, 100}, want: 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			records := make([]TailoringRecord, len(tc.progress))
			for i, p := range tc.progress {
				records[i] = TailoringRecord{Progress: p}
			}
			if got := OverallProgress(records); got != tc.want {
				t.Errorf("OverallProgress: got %d, want %d", got, tc.want)
			}
		})
	}
}
