package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestNewJobRoundTripsPayload(t *testing.T) {
	videoID := uuid.New()
	job, err := NewJob(QueueMediaCleanup, JobTypeMediaCleanup, MediaCleanupPayload{VideoID: videoID, Keys: []string{"videos/a.mp4"}})
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if job.ID == "" || job.Attempt != 0 || job.Queue != QueueMediaCleanup {
		t.Fatalf("unexpected envelope: %+v", job)
	}

	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	decoded, err := DecodeJob(string(raw))
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	var payload MediaCleanupPayload
	if err := json.Unmarshal(decoded.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.VideoID != videoID || len(payload.Keys) != 1 {
		t.Fatalf("payload mismatch: %+v", payload)
	}
}

func TestDecodeJobRejectsGarbage(t *testing.T) {
	if _, err := DecodeJob("{not json"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestShouldDeadLetter(t *testing.T) {
	job := &Job{Attempt: MaxRetries - 1}
	if ShouldDeadLetter(job) {
		t.Fatal("job below the retry limit must not be dead-lettered")
	}
	job.Attempt++
	if !ShouldDeadLetter(job) {
		t.Fatal("job at the retry limit must be dead-lettered")
	}
}
