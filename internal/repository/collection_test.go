package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/smart-student-api/internal/models"
	appErrors "github.com/noah-isme/smart-student-api/pkg/errors"
)

func TestCollectionKey(t *testing.T) {
	assert.Equal(t, "smart_student:users", CollectionKey("smart_student", CollectionUsers))
	assert.Equal(t, "tasks", CollectionKey("", CollectionTasks))
}

func TestCollectionMissingKeyIsEmpty(t *testing.T) {
	col := NewCollection[models.Task](NewMemoryStore(), "smart_student:tasks", nil)
	items, err := col.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollectionCorruptBlobIsCleared(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "smart_student:notifications", []byte(`[{"id":`)))

	core, logs := observer.New(zap.ErrorLevel)
	col := NewCollection[models.Notification](store, "smart_student:notifications", zap.New(core))

	items, err := col.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, logs.FilterMessage("corrupt collection cleared").Len())

	_, err = store.Get(ctx, "smart_student:notifications")
	assert.ErrorIs(t, err, appErrors.ErrBlobMissing)
}

func TestCollectionNullBlobIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "k", []byte("null")))
	items, err := NewCollection[models.User](store, "k", nil).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

type countingStore struct {
	*MemoryStore
	puts int
}

func (s *countingStore) Put(ctx context.Context, key string, value []byte) error {
	s.puts++
	return s.MemoryStore.Put(ctx, key, value)
}

func TestCollectionUpdateSkipsUnchangedWrites(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	col := NewCollection[models.User](store, "users", nil)

	require.NoError(t, col.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		return items, false, nil
	}))
	assert.Equal(t, 0, store.puts)

	require.NoError(t, col.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		return append(items, models.User{Username: "maria"}), true, nil
	}))
	assert.Equal(t, 1, store.puts)

	boom := errors.New("boom")
	err := col.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		return nil, true, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.puts)
}

func TestCollectionConcurrentWritersDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(NewMemoryStore(), "smart_student", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			at := time.UnixMilli(int64(i))
			_ = repo.Put(ctx, models.Notification{ID: models.NotificationID(models.NotificationNewTask, "t1", at)})
		}(i)
	}
	wg.Wait()

	items, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 20)
}

type recordingObserver struct {
	ops []string
}

func (o *recordingObserver) ObserveStoreOperation(backend, op string, failed bool, _ time.Duration) {
	label := backend + ":" + op
	if failed {
		label += ":failed"
	}
	o.ops = append(o.ops, label)
}

func TestInstrumentedStore(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	store := Instrument(NewMemoryStore(), "memory", obs)

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrBlobMissing)
	require.NoError(t, store.Put(ctx, "k", []byte("[]")))
	require.NoError(t, store.Delete(ctx, "k"))

	assert.Equal(t, []string{"memory:get", "memory:put", "memory:delete"}, obs.ops)

	plain := NewMemoryStore()
	assert.Same(t, plain, Instrument(plain, "memory", nil))
}

func TestCollectionKeepsUndecodableElements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	key := "smart_student:notifications"
	require.NoError(t, store.Put(ctx, key, []byte(`[
		{"id":"n1","type":"new_task","taskId":"t1","targetUserRole":"student","targetUsernames":["maria"],"fromUsername":"jorge","readBy":[]},
		42,
		{"id":"n2","type":"new_task","taskId":"t2","targetUserRole":"student","targetUsernames":["maria"],"fromUsername":"jorge","timestamp":1709283600000}
	]`)))

	core, logs := observer.New(zap.WarnLevel)
	repo := NewEntityRepository(NewCollection[models.Notification](store, key, zap.New(core)))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, time.UnixMilli(1709283600000).UTC(), items[1].Timestamp)
	assert.Equal(t, 1, logs.FilterMessage("skipping undecodable element").Len())
	assert.Zero(t, logs.FilterMessage("corrupt collection cleared").Len())

	require.NoError(t, repo.Mutate(ctx, func(items []models.Notification) ([]models.Notification, bool, error) {
		items[0] = models.MarkRead(items[0], "maria")
		return items, true, nil
	}))

	raw, err := store.Get(ctx, key)
	require.NoError(t, err)
	var stored []json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &stored))
	require.Len(t, stored, 3)
	assert.JSONEq(t, `42`, string(stored[2]))

	n1, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.ReadSet{"maria"}, n1.ReadBy)
}

func TestCollectionNonArrayBlobIsKept(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "users", []byte(`{"maria":{"role":"student"}}`)))
	col := NewCollection[models.User](store, "users", nil)

	items, err := col.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	err = col.Update(ctx, func(items []models.User) ([]models.User, bool, error) {
		return append(items, models.User{Username: "pedro"}), true, nil
	})
	assert.ErrorIs(t, err, errNotArray)

	raw, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.JSONEq(t, `{"maria":{"role":"student"}}`, string(raw))
}
