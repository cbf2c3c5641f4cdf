package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *captureWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

type queueReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []int64
}

func (r *queueReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		m := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *queueReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *queueReader) Close() error { return nil }

func TestPublishBatchEncodesJSON(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "activity")
	err := p.PublishBatch(context.Background(), []Event{
		{Key: "7", Value: map[string]int{"post_id": 7}},
		{Key: "8", Value: map[string]int{"post_id": 8}},
	})
	if err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if len(w.msgs) != 2 || string(w.msgs[0].Key) != "7" || string(w.msgs[1].Value) != `{"post_id":8}` {
		t.Fatalf("messages = %+v", w.msgs)
	}
}

func TestPublishBatchRejectsUnencodable(t *testing.T) {
	w := &captureWriter{}
	p := NewProducerWithWriter(w, "activity")
	if err := p.PublishBatch(context.Background(), []Event{{Key: "x", Value: make(chan int)}}); err == nil {
		t.Fatal("expected marshal error")
	}
	if len(w.msgs) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	want := errors.New("broker down")
	p := NewProducerWithWriter(&captureWriter{err: want}, "activity")
	if err := p.Publish(context.Background(), Event{Key: "k", Value: 1}); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}

func TestConsumerCommitsOnlyHandled(t *testing.T) {
	r := &queueReader{pending: []kafka.Message{
		{Offset: 1, Value: []byte(`{"n":1}`)},
		{Offset: 2, Value: []byte(`garbage`)},
		{Offset: 3, Value: []byte(`{"n":3}`)},
	}}
	var mu sync.Mutex
	var seen []int
	handler := func(ctx context.Context, key, value []byte) error {
		v, err := DecodeJSON[struct{ N int }](value)
		if err != nil {
			return err
		}
		mu.Lock()
		seen = append(seen, v.N)
		mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewConsumerWithReader(r, "activity", handler).Start(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("consumer did not process messages")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Start returned %v", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.committed) != 2 || r.committed[0] != 1 || r.committed[1] != 3 {
		t.Fatalf("committed offsets = %v", r.committed)
	}
}
