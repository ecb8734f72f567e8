package resultsink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jdelgado-dtlabs/TheMillionaireGame-sub002/internal/models"
)

type recordingPublisher struct {
	mu        sync.Mutex
	summaries []models.RoundSummary
	err       error
	block     chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, summary models.RoundSummary) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, summary)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.summaries)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func summary(questionID string) models.RoundSummary {
	return models.RoundSummary{SessionID: "s1", QuestionID: questionID, Mode: models.GameModeFFF}
}

func TestAsyncDeliversInOrder(t *testing.T) {
	pub := &recordingPublisher{}
	sink := NewAsync(pub, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sink.Run(ctx)

	sink.Publish(summary("q1"))
	sink.Publish(summary("q2"))

	waitFor(t, func() bool { return pub.count() == 2 }, "summaries never delivered")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.summaries[0].QuestionID != "q1" || pub.summaries[1].QuestionID != "q2" {
		t.Fatalf("expected FIFO delivery, got %+v", pub.summaries)
	}
}

func TestPublishNeverBlocksWhenQueueFull(t *testing.T) {
	// No worker running and a queue depth of 1: the second publish must
	// drop instead of blocking round completion.
	sink := NewAsync(&recordingPublisher{}, 1)

	done := make(chan struct{})
	go func() {
		sink.Publish(summary("q1"))
		sink.Publish(summary("q2"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}

func TestPublisherErrorDoesNotStopWorker(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	sink := NewAsync(pub, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sink.Run(ctx)

	sink.Publish(summary("q1"))
	sink.Publish(summary("q2"))

	waitFor(t, func() bool { return pub.count() == 2 }, "worker stopped after publish error")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	pub := &recordingPublisher{block: make(chan struct{})}
	sink := NewAsync(pub, 8)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sink.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
