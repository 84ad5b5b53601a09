package offline

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/subir-ghosh-au26/Manthan-2025/internal/model"
	apperrors "github.com/subir-ghosh-au26/Manthan-2025/pkg/errors"
)

func setupSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "kiosk.sqlite"), "")
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, ""), mr
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	redisStore, _ := setupRedisStore(t)
	return map[string]Store{
		"sqlite": setupSQLiteStore(t),
		"redis":  redisStore,
	}
}

func TestStore_AbsentSlotIsEmptyQueue(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			queue, err := store.Read(context.Background())
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if queue == nil || len(queue) != 0 {
				t.Errorf("expected empty non-nil queue, got %v", queue)
			}
		})
	}
}

func TestStore_WriteReadPreservesOrder(t *testing.T) {
	want := []model.Submission{
		{ID: 3, Food: 5, Stay: 4, Conference: 5, Campus: 3, Comments: "first"},
		{ID: 1, Food: 1, Stay: 2, Conference: 3, Campus: 4, Activities: 5},
	}

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Write(ctx, want); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			// Overwrite must replace, not append.
			if err := store.Write(ctx, want); err != nil {
				t.Fatalf("second Write failed: %v", err)
			}

			got, err := store.Read(ctx)
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if len(got) != len(want) {
				t.Fatalf("expected %d records, got %d", len(want), len(got))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("record %d: got %+v, want %+v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestSQLiteStore_CorruptedSlot(t *testing.T) {
	store := setupSQLiteStore(t)
	if _, err := store.db.Exec(`INSERT INTO kiosk_slot (key, value) VALUES (?, ?)`, DefaultKey, "{not json"); err != nil {
		t.Fatal(err)
	}

	_, err := store.Read(context.Background())
	if !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestSQLiteStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "kiosk.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	store, err := NewSQLiteStore(db, "slot")
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := store.Read(context.Background()); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestRedisStore_CorruptedSlot(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Set(DefaultKey, "[{\"id\":")

	if _, err := store.Read(context.Background()); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestRedisStore_ServerDownIsUnavailable(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	if _, err := store.Read(context.Background()); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestUnavailableStore(t *testing.T) {
	store := Unavailable{Reason: errors.New("read-only filesystem")}

	if _, err := store.Read(context.Background()); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
	if err := store.Write(context.Background(), nil); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable from Write, got %v", err)
	}
}
