package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestInProcessQueueDeliversJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[uuid.UUID]bool{}
	done := make(chan struct{}, 3)

	q := NewInProcessQueue(func(_ context.Context, job Job) error {
		mu.Lock()
		seen[job.ArticleID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, 2, 8)
	defer q.Close()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		if err := q.Enqueue(context.Background(), Job{UserID: uuid.New(), ArticleID: id}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	for range ids {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("job %s never processed", id)
		}
	}
}

func TestInProcessQueueCloseDrainsAndRejects(t *testing.T) {
	processed := make(chan uuid.UUID, 1)
	q := NewInProcessQueue(func(_ context.Context, job Job) error {
		processed <- job.ArticleID
		return nil
	}, 1, 1)

	id := uuid.New()
	if err := q.Enqueue(context.Background(), Job{ArticleID: id}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	select {
	case got := <-processed:
		if got != id {
			t.Errorf("processed %s, want %s", got, id)
		}
	default:
		t.Error("close returned before the queued job ran")
	}

	if err := q.Enqueue(context.Background(), Job{ArticleID: uuid.New()}); err == nil {
		t.Error("enqueue after close should fail")
	}
	// double close is a no-op
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestHandleMessageDecodesJob(t *testing.T) {
	providerID := uint(4)
	want := Job{UserID: uuid.New(), ArticleID: uuid.New(), ProviderID: &providerID}
	payload, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	var got Job
	handleMessage(context.Background(), func(_ context.Context, job Job) error {
		got = job
		return nil
	}, payload)

	if got.ArticleID != want.ArticleID || got.UserID != want.UserID {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.ProviderID == nil || *got.ProviderID != providerID {
		t.Errorf("provider override lost: %+v", got.ProviderID)
	}
}

func TestHandleMessageDropsMalformedPayload(t *testing.T) {
	called := false
	handleMessage(context.Background(), func(context.Context, Job) error {
		called = true
		return nil
	}, []byte("{not json"))
	if called {
		t.Error("processor should not run for malformed payloads")
	}
}

func TestHandleMessageSwallowsProcessorError(t *testing.T) {
	payload, _ := json.Marshal(Job{UserID: uuid.New(), ArticleID: uuid.New()})
	// must not panic or retry; failure is recorded on the article row
	handleMessage(context.Background(), func(context.Context, Job) error {
		return errors.New("provider down")
	}, payload)
}
