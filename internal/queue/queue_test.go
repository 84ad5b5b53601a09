package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
)

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := WrapRedisClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestProducerConsumer(t *testing.T) {
	client, mr := setupRedis(t)
	producer := NewProducer(client, "feedback:imports")
	consumer := NewConsumer(client, "feedback:imports", ":dlq", zerolog.Nop())

	jobs := []model.ImportJob{
		{ImportID: "a", S3Path: "imports/a.xlsx"},
		{ImportID: "b", S3Path: "imports/b.xlsx"},
	}
	for _, job := range jobs {
		if err := producer.EnqueueImportJob(context.Background(), job); err != nil {
			t.Fatalf("EnqueueImportJob failed: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan model.ImportJob, len(jobs))
	done := make(chan error)
	go func() {
		done <- consumer.Consume(ctx, func(ctx context.Context, data []byte) error {
			var job model.ImportJob
			if err := json.Unmarshal(data, &job); err != nil {
				return err
			}
			received <- job
			if job.ImportID == "b" {
				return errors.New("boom")
			}
			return nil
		})
	}()

	for i, want := range jobs {
		select {
		case got := <-received:
			if got != want {
				t.Errorf("job %d: got %+v, want %+v (FIFO)", i, got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for job %d", i)
		}
	}

	// The failed job lands on the DLQ once the handler returns.
	deadline := time.Now().Add(2 * time.Second)
	for {
		items, _ := mr.List(consumer.DLQName())
		if len(items) == 1 {
			var job model.ImportJob
			json.Unmarshal([]byte(items[0]), &job)
			if job.ImportID != "b" {
				t.Errorf("expected job b on DLQ, got %+v", job)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected one DLQ entry, got %v", items)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(popTimeout + time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}
