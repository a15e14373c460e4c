package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/grovetools/board/config"
	"github.com/grovetools/board/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(title string) models.Item {
	return models.Item{Title: title, Description: title + " description", Price: 100}
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", filepath.Join(t.TempDir(), "listings.sqlite3"))
	sqlite, err := OpenSQL(config.DriverSQLite, dsn)
	require.NoError(t, err)

	return map[string]Backend{
		"memory":  NewMemoryBackend(),
		"sqlite3": sqlite,
	}
}

func TestStore_CreateAssignsIncreasingIDs(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend)
			defer s.Close()
			ctx := context.Background()

			incoming := listing("A")
			incoming.ID = 99
			a, err := s.Create(ctx, incoming)
			require.NoError(t, err)
			b, err := s.Create(ctx, listing("B"))
			require.NoError(t, err)

			assert.Equal(t, int64(1), a.ID)
			assert.Equal(t, int64(2), b.ID)

			items, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, "A", items[0].Title)
			assert.Equal(t, "B", items[1].Title)
			assert.Equal(t, 100.0, items[1].Price)
		})
	}
}

func TestStore_ListEmpty(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend)
			defer s.Close()

			items, err := s.List(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestStore_SeedOnlyWhenEmpty(t *testing.T) {
	s := New(NewMemoryBackend())
	ctx := context.Background()

	created, err := s.Seed(ctx, listing("seed"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Seed(ctx, listing("seed again"))
	require.NoError(t, err)
	assert.False(t, created)

	items, _ := s.List(ctx)
	assert.Len(t, items, 1)
}

func TestStore_SubscribersReceiveCreatedItemsInOrder(t *testing.T) {
	s := New(NewMemoryBackend())
	ctx := context.Background()
	first := s.Subscribe()
	second := s.Subscribe()

	for _, title := range []string{"A", "B", "C"} {
		_, err := s.Create(ctx, listing(title))
		require.NoError(t, err)
	}

	for _, sub := range []<-chan models.Item{first, second} {
		for want := int64(1); want <= 3; want++ {
			got := <-sub
			assert.Equal(t, want, got.ID)
		}
	}
	assert.Equal(t, 2, s.Subscribers())
}

func TestStore_SlowSubscriberIsCutOff(t *testing.T) {
	s := New(NewMemoryBackend())
	ctx := context.Background()
	slow := s.Subscribe()

	for i := 0; i <= subscriberBuffer; i++ {
		_, err := s.Create(ctx, listing(fmt.Sprintf("item %d", i)))
		require.NoError(t, err)
	}

	received := 0
	for range slow {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)
	assert.Equal(t, 0, s.Subscribers())

	// Unsubscribing a subscription the store already closed is harmless.
	s.Unsubscribe(slow)
}

func TestStore_Unsubscribe(t *testing.T) {
	s := New(NewMemoryBackend())
	sub := s.Subscribe()

	s.Unsubscribe(sub)
	_, open := <-sub
	assert.False(t, open)

	_, err := s.Create(context.Background(), listing("A"))
	require.NoError(t, err)
}

func TestStore_CloseEndsSubscriptions(t *testing.T) {
	s := New(NewMemoryBackend())
	sub := s.Subscribe()

	require.NoError(t, s.Close())

	_, open := <-sub
	assert.False(t, open)
}

func TestSQLBackend_ReopenKeepsData(t *testing.T) {
	dsn := fmt.Sprintf("file:%s", filepath.Join(t.TempDir(), "listings.sqlite3"))
	ctx := context.Background()

	first, err := OpenSQL(config.DriverSQLite, dsn)
	require.NoError(t, err)
	_, err = first.Insert(ctx, listing("kept"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQL(config.DriverSQLite, dsn)
	require.NoError(t, err)
	defer second.Close()

	items, err := second.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "kept", items[0].Title)

	created, err := second.Insert(ctx, listing("next"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), created.ID)
}

func TestOpenBackend(t *testing.T) {
	b, err := OpenBackend(config.DatabaseConfig{Driver: config.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	_, err = OpenBackend(config.DatabaseConfig{Driver: "postgres"})
	assert.Error(t, err)

	_, err = OpenSQL("postgres", "")
	assert.Error(t, err)
}
