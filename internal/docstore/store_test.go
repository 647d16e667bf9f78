package docstore

import (
	"context"
	"testing"

	"github.com/soyeahso/maitred/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndFind(t *testing.T) {
	s := NewDocuments(testDB(t))
	ctx := context.Background()

	doc, err := s.Insert(ctx, CollectionDishes, map[string]any{
		"name": "Ratatouille", "category": "main course", "price": 14.0,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc["id"])

	all, err := s.Find(ctx, CollectionDishes, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ratatouille", all[0]["name"])
	assert.Equal(t, doc["id"], all[0]["id"])
}

func TestFindFilter(t *testing.T) {
	s := NewDocuments(testDB(t))
	ctx := context.Background()

	_, err := s.Insert(ctx, CollectionDishes, map[string]any{"name": "Crème brûlée", "category": "dessert"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, CollectionDishes, map[string]any{"name": "Ratatouille", "category": "main course"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, CollectionTables, map[string]any{"nbSeats": 4, "location": "indoor"})
	require.NoError(t, err)

	desserts, err := s.Find(ctx, CollectionDishes, map[string]any{"category": "dessert"})
	require.NoError(t, err)
	require.Len(t, desserts, 1)
	assert.Equal(t, "Crème brûlée", desserts[0]["name"])

	// int filter matches float64-decoded JSON number
	tables, err := s.Find(ctx, CollectionTables, map[string]any{"nbSeats": 4})
	require.NoError(t, err)
	assert.Len(t, tables, 1)

	// collections are isolated
	none, err := s.Find(ctx, CollectionOrders, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdate(t *testing.T) {
	s := NewDocuments(testDB(t))
	ctx := context.Background()

	doc, err := s.Insert(ctx, CollectionOrders, map[string]any{
		"customerName": "Claire", "status": "pending",
	})
	require.NoError(t, err)
	id := doc["id"].(string)

	ok, err := s.Update(ctx, CollectionOrders, id, map[string]any{"status": "preparing"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Find(ctx, CollectionOrders, map[string]any{"id": id})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "preparing", got[0]["status"])
	assert.Equal(t, "Claire", got[0]["customerName"])

	ok, err = s.Update(ctx, CollectionOrders, "missing", map[string]any{"status": "x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := NewDocuments(testDB(t))
	ctx := context.Background()

	doc, err := s.Insert(ctx, CollectionReservations, map[string]any{"customerName": "Marc"})
	require.NoError(t, err)

	ok, err := s.Delete(ctx, CollectionReservations, doc["id"].(string))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Delete(ctx, CollectionReservations, doc["id"].(string))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeedIdempotent(t *testing.T) {
	s := NewDocuments(testDB(t))
	ctx := context.Background()

	require.NoError(t, Seed(ctx, s))
	dishes, err := s.Find(ctx, CollectionDishes, nil)
	require.NoError(t, err)
	first := len(dishes)
	assert.Greater(t, first, 0)

	require.NoError(t, Seed(ctx, s))
	dishes, err = s.Find(ctx, CollectionDishes, nil)
	require.NoError(t, err)
	assert.Len(t, dishes, first)

	info, err := s.Find(ctx, CollectionInfo, nil)
	require.NoError(t, err)
	require.Len(t, info, 1)
	assert.Equal(t, "Le Gourmet", info[0]["name"])
}
