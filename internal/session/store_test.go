package session

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type fakeRedis struct {
	data map[string]string
	ttls map[string]time.Duration

	setErr     error
	setErrLeft int // fail this many Set calls before succeeding
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.setErrLeft > 0 {
		f.setErrLeft--
		return goredis.NewStatusResult("", f.setErr)
	}

	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	val, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(val, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func testStore(rdb *fakeRedis, ttl time.Duration) *Store {
	return &Store{
		rdb:      rdb,
		ttl:      ttl,
		strategy: retry.Strategy{Attempts: 3, Delay: time.Millisecond},
	}
}

func TestCreateAndGet(t *testing.T) {
	rdb := newFakeRedis()
	store := testStore(rdb, 24*time.Hour)
	userID := uuid.New()

	sid, err := store.Create(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	got, err := store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestCreate_AppliesConfiguredTTL(t *testing.T) {
	rdb := newFakeRedis()
	store := testStore(rdb, 24*time.Hour)

	sid, err := store.Create(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, rdb.ttls[key(sid)], "session must expire per config")
}

func TestCreate_RetriesTransientFailure(t *testing.T) {
	rdb := newFakeRedis()
	rdb.setErr = errors.New("connection reset")
	rdb.setErrLeft = 2

	store := testStore(rdb, time.Hour)

	sid, err := store.Create(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Contains(t, rdb.data, key(sid))
}

func TestGet_Unknown(t *testing.T) {
	store := testStore(newFakeRedis(), time.Hour)

	_, err := store.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDelete(t *testing.T) {
	rdb := newFakeRedis()
	store := testStore(rdb, time.Hour)

	sid, err := store.Create(context.Background(), uuid.New())
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), sid))

	_, err = store.Get(context.Background(), sid)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
