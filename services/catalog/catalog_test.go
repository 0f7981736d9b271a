package catalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T, assert *require.Assertions, count int) (*Service, []int64) {
	t.Helper()

	testLogger := logger.New("debug")
	db, err := productdb.Open(testLogger, productdb.DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	assert.NoError(err, "could not open product database")
	t.Cleanup(func() {
		assert.NoError(db.Close())
	})

	ids := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		id, err := db.Insert(context.Background(), productdb.Product{
			Name: fmt.Sprintf("Product %d", i),
			SKU:  fmt.Sprintf("SKU-%d", i),
		})
		assert.NoError(err)
		ids = append(ids, id)
	}

	return New(testLogger, db), ids
}

func TestClear(t *testing.T) {
	assert := require.New(t)
	service, _ := setupTestService(t, assert, 5)
	ctx := context.Background()

	deleted, err := service.Clear(ctx)
	assert.NoError(err)
	assert.Equal(int64(5), deleted)

	count, err := service.Count(ctx)
	assert.NoError(err)
	assert.Zero(count)
}

func TestDelete(t *testing.T) {
	assert := require.New(t)
	service, ids := setupTestService(t, assert, 2)
	ctx := context.Background()

	assert.NoError(service.Delete(ctx, ids[0]))
	assert.True(errors.Is(service.Delete(ctx, ids[0]), ErrProductNotFound))

	_, err := service.Get(ctx, ids[0])
	assert.True(errors.Is(err, ErrProductNotFound))

	product, err := service.Get(ctx, ids[1])
	assert.NoError(err)
	assert.Equal("Product 1", product.Name)

	count, err := service.Count(ctx)
	assert.NoError(err)
	assert.Equal(int64(1), count)
}
