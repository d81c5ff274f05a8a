package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

func TestIdempotencyRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)

	ttl := time.Now().UTC().Add(time.Hour)

	created, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	if err != nil {
		t.Fatalf("create processing: %v", err)
	}
	if created.Status != domain.IdempotencyStatusProcessing {
		t.Fatalf("expected processing status, got %s", created.Status)
	}

	// Повторная регистрация того же ключа возвращает существующую запись.
	existing, err := repo.CreateProcessing("key-1", "hash-1", ttl)
	if !errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
		t.Fatalf("expected ErrIdempotencyKeyAlreadyExists, got %v", err)
	}
	if existing.Key != "key-1" {
		t.Fatalf("expected existing record, got %+v", existing)
	}

	// Тот же ключ с другим телом запроса — конфликт хеша.
	if _, err := repo.CreateProcessing("key-1", "hash-other", ttl); !errors.Is(err, domain.ErrIdempotencyHashMismatch) {
		t.Fatalf("expected ErrIdempotencyHashMismatch, got %v", err)
	}

	if err := repo.MarkDone("key-1", []byte(`{"order_id":"order-1"}`), 201); err != nil {
		t.Fatalf("mark done: %v", err)
	}

	record, err := repo.Get("key-1")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if record.Status != domain.IdempotencyStatusDone {
		t.Fatalf("expected done status, got %s", record.Status)
	}
	if record.HTTPStatus != 201 || string(record.ResponseBody) != `{"order_id":"order-1"}` {
		t.Fatalf("unexpected stored response: status=%d body=%s", record.HTTPStatus, record.ResponseBody)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound, got %v", err)
	}
	if err := repo.MarkFailed("missing", nil, 500); !errors.Is(err, domain.ErrIdempotencyKeyNotFound) {
		t.Fatalf("expected ErrIdempotencyKeyNotFound for mark, got %v", err)
	}
}

func TestIdempotencyRepository_DeleteExpired(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)

	now := time.Now().UTC()

	for _, fixture := range []struct {
		key string
		ttl time.Time
	}{
		{"expired-1", now.Add(-2 * time.Hour)},
		{"expired-2", now.Add(-time.Hour)},
		{"alive-1", now.Add(time.Hour)},
	} {
		if _, err := repo.CreateProcessing(fixture.key, "hash", fixture.ttl); err != nil {
			t.Fatalf("create %s: %v", fixture.key, err)
		}
	}

	deleted, err := repo.DeleteExpired(now, 1)
	if err != nil {
		t.Fatalf("delete expired with limit: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", deleted)
	}

	deleted, err = repo.DeleteExpired(now, 0)
	if err != nil {
		t.Fatalf("delete expired without limit: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 more deleted, got %d", deleted)
	}

	if _, err := repo.Get("alive-1"); err != nil {
		t.Fatalf("expected alive record to survive, got %v", err)
	}
}
