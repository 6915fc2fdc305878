package ingest

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrEmptySentence is returned for input that is blank after trimming.
var ErrEmptySentence = errors.New("empty sentence")

// Sentence represents an ingested Japanese sentence and metadata.
type Sentence struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSentence trims and validates text and assigns it an ID.
func NewSentence(text string) (Sentence, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Sentence{}, ErrEmptySentence
	}
	return Sentence{
		ID:        uuid.NewString(),
		Text:      trimmed,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Queue publishes ingested sentences for downstream consumers. Publishing
// never blocks; sentences are dropped when the buffer is full.
type Queue struct {
	mu      sync.RWMutex
	closed  bool
	ch      chan Sentence
	dropped atomic.Int64
}

// NewQueue creates a queue buffering up to size sentences.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 100
	}
	return &Queue{ch: make(chan Sentence, size)}
}

// Ingest creates a Sentence from text and publishes it. A nil queue only
// creates the sentence.
func (q *Queue) Ingest(text string) (Sentence, error) {
	s, err := NewSentence(text)
	if err != nil {
		return Sentence{}, err
	}
	q.Publish(s)
	return s, nil
}

// Publish offers s to consumers and reports whether it was queued.
func (q *Queue) Publish(s Sentence) bool {
	if q == nil {
		return false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		return false
	}
	select {
	case q.ch <- s:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Sentences is the receive side of the queue.
func (q *Queue) Sentences() <-chan Sentence { return q.ch }

// Dropped returns how many sentences were discarded on a full buffer.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Close closes the receive side. Later publishes are counted as dropped.
// Closing twice is a no-op.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
