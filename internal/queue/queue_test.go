package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return New(rdb)
}

func TestEncodePayloadRejectsMismatch(t *testing.T) {
	_, err := EncodePayload(JobWelcomeEmail, "not a payload struct")

	if !errors.Is(err, ErrPayloadTypeMismatch) {
		t.Fatalf("got %v, want ErrPayloadTypeMismatch", err)
	}
}

func TestEncodePayloadRejectsUnknownType(t *testing.T) {
	_, err := EncodePayload(JobType("bogus"), WelcomeEmailPayload{})

	if !errors.Is(err, ErrInvalidJobType) {
		t.Fatalf("got %v, want ErrInvalidJobType", err)
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	in := WelcomeEmailPayload{
		UserID:   "u-1",
		Email:    "alice@x.com",
		Name:     "Alice Smith",
		Username: "alice",
	}

	b, err := EncodePayload(JobWelcomeEmail, in)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	out, err := DecodePayload(Job{Type: JobWelcomeEmail, Payload: b})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	got, ok := out.(WelcomeEmailPayload)
	if !ok {
		t.Fatalf("decoded to %T, want WelcomeEmailPayload", out)
	}
	if got != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
	}
}

func TestDecodePayloadEmpty(t *testing.T) {
	_, err := DecodePayload(Job{Type: JobWelcomeEmail})

	if !errors.Is(err, ErrInvalidJobPayload) {
		t.Fatalf("got %v, want ErrInvalidJobPayload", err)
	}
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, JobWelcomeEmail, WelcomeEmailPayload{UserID: "u-1", Email: "a@x.com"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	second, err := q.Enqueue(ctx, JobWelcomeEmail, WelcomeEmailPayload{UserID: "u-2", Email: "b@x.com"})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	n, err := q.Len(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Len = %d, %v; want 2, nil", n, err)
	}

	got1, ok, err := q.Dequeue(ctx, time.Second)
	if err != nil || !ok {
		t.Fatalf("dequeue: ok=%v err=%v", ok, err)
	}
	got2, ok, err := q.Dequeue(ctx, time.Second)
	if err != nil || !ok {
		t.Fatalf("dequeue: ok=%v err=%v", ok, err)
	}

	if got1.ID != first.ID || got2.ID != second.ID {
		t.Fatalf("order broken: got %s,%s want %s,%s", got1.ID, got2.ID, first.ID, second.ID)
	}
	if got1.Type != JobWelcomeEmail {
		t.Fatalf("job type lost in transit: %s", got1.Type)
	}
}

func TestDequeueEmptyTimesOut(t *testing.T) {
	q := newTestQueue(t)

	_, ok, err := q.Dequeue(context.Background(), 50*time.Millisecond)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("dequeue on empty queue reported a job")
	}
}

func TestRequeuePreservesAttempts(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	payload, _ := json.Marshal(WelcomeEmailPayload{UserID: "u-1"})
	j := Job{
		ID:         "retry-1",
		Type:       JobWelcomeEmail,
		Payload:    payload,
		Attempts:   3,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := q.Requeue(ctx, j); err != nil {
		t.Fatalf("requeue failed: %v", err)
	}

	got, ok, err := q.Dequeue(ctx, time.Second)
	if err != nil || !ok {
		t.Fatalf("dequeue: ok=%v err=%v", ok, err)
	}
	if got.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", got.Attempts)
	}
	if got.ID != "retry-1" {
		t.Fatalf("ID = %s, want retry-1", got.ID)
	}
}
