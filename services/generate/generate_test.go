package generate

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/meghashyamc/catalog/db/kvdb"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/metrics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// scriptedSynthesizer hands out the given products in order.
type scriptedSynthesizer struct {
	mu       sync.Mutex
	products []productdb.Product
	next     int
}

func (s *scriptedSynthesizer) Next() productdb.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := s.products[s.next]
	s.next++
	return product
}

type recordedGeneration struct {
	status   string
	inserted int
	skipped  int
}

type fakeRecorder struct {
	observed []recordedGeneration
}

func (r *fakeRecorder) ObserveGeneration(status string, inserted int, skipped int) {
	r.observed = append(r.observed, recordedGeneration{status: status, inserted: inserted, skipped: skipped})
}

type testDeps struct {
	products *productdb.GormDB
	runs     *kvdb.BoltDB
	recorder *fakeRecorder
}

func setupTestDeps(t *testing.T, assert *require.Assertions) testDeps {
	t.Helper()

	testLogger := logger.New("debug")
	dir := t.TempDir()

	products, err := productdb.Open(testLogger, productdb.DriverSQLite, filepath.Join(dir, "catalog.db"))
	assert.NoError(err, "could not open product database")
	runs, err := kvdb.Open(testLogger, filepath.Join(dir, "runs.db"))
	assert.NoError(err, "could not open kv database")

	t.Cleanup(func() {
		assert.NoError(products.Close())
		assert.NoError(runs.Close())
	})

	return testDeps{products: products, runs: runs, recorder: &fakeRecorder{}}
}

func (d testDeps) service(synthesizer Synthesizer) *Service {
	return New(logger.New("debug"), d.products, d.runs, d.recorder, synthesizer)
}

func scriptedProducts(skus ...string) []productdb.Product {
	products := make([]productdb.Product, 0, len(skus))
	for _, sku := range skus {
		products = append(products, productdb.Product{
			Name:          "Product " + sku,
			Category:      "Electronics",
			Brand:         "Sony",
			Price:         decimal.RequireFromString("42.50"),
			StockQuantity: 5,
			SKU:           sku,
		})
	}
	return products
}

func skuRange(prefix string, from int, to int) []string {
	skus := []string{}
	for i := from; i <= to; i++ {
		skus = append(skus, fmt.Sprintf("%s-%03d", prefix, i))
	}
	return skus
}

func TestGenerateSkipsCollidingSKU(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)
	ctx := context.Background()

	first := deps.service(&scriptedSynthesizer{products: scriptedProducts(skuRange("A", 1, 10)...)})
	result, err := first.Generate(ctx, 10, "first")
	assert.NoError(err)
	assert.Equal(Result{RequestID: "first", Requested: 10, Inserted: 10, Skipped: 0}, result)

	count, err := deps.products.CountAll(ctx)
	assert.NoError(err)
	assert.Equal(int64(10), count)

	// The fifth sku of the second batch already exists.
	secondSKUs := append(skuRange("B", 1, 4), "A-005")
	secondSKUs = append(secondSKUs, skuRange("B", 5, 9)...)
	second := deps.service(&scriptedSynthesizer{products: scriptedProducts(secondSKUs...)})
	result, err = second.Generate(ctx, 10, "second")
	assert.NoError(err)
	assert.Equal(9, result.Inserted)
	assert.Equal(1, result.Skipped)
	assert.Equal(result.Requested, result.Inserted+result.Skipped)
	assert.Equal("Added 9 products successfully (1 duplicates skipped)", result.Message())

	count, err = deps.products.CountAll(ctx)
	assert.NoError(err)
	assert.Equal(int64(19), count)

	assert.Equal([]recordedGeneration{
		{status: metrics.StatusCompleted, inserted: 10, skipped: 0},
		{status: metrics.StatusCompleted, inserted: 9, skipped: 1},
	}, deps.recorder.observed)
}

func TestGenerateRollsBackOnNonDuplicateFailure(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)
	ctx := context.Background()

	products := scriptedProducts(skuRange("C", 1, 5)...)
	products[3].StockQuantity = -10
	service := deps.service(&scriptedSynthesizer{products: products})

	_, err := service.Generate(ctx, 5, "failing")
	assert.Error(err)
	assert.True(errors.Is(err, productdb.ErrUnavailable), "expected store error, got %v", err)

	count, err := deps.products.CountAll(ctx)
	assert.NoError(err)
	assert.Zero(count, "no row of the failed batch should be kept")

	run, err := service.GetRun("failing")
	assert.NoError(err)
	assert.Equal(RunStatusFailed, run.Status)
	assert.NotNil(run.FinishedAt)

	assert.Equal([]recordedGeneration{{status: metrics.StatusFailed}}, deps.recorder.observed)
}

func TestGenerateZeroIsNoop(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)
	ctx := context.Background()

	service := deps.service(&scriptedSynthesizer{})
	result, err := service.Generate(ctx, 0, "")
	assert.NoError(err)
	assert.Zero(result.Inserted)
	assert.Zero(result.Skipped)
	assert.NotEmpty(result.RequestID, "a request id should be assigned when none is given")
	assert.Equal("Added 0 products successfully", result.Message())

	count, err := deps.products.CountAll(ctx)
	assert.NoError(err)
	assert.Zero(count)
}

func TestGenerateNegativeCount(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)

	_, err := deps.service(nil).Generate(context.Background(), -1, "negative")
	assert.True(errors.Is(err, ErrInvalidCount))

	_, err = deps.service(nil).GetRun("negative")
	assert.True(errors.Is(err, ErrRunNotFound), "rejected requests should not be recorded")
}

func TestGenerateWithRandomSynthesizer(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)
	ctx := context.Background()

	result, err := deps.service(nil).Generate(ctx, 200, "random")
	assert.NoError(err)
	assert.Equal(200, result.Inserted+result.Skipped)

	count, err := deps.products.CountAll(ctx)
	assert.NoError(err)
	assert.Equal(int64(result.Inserted), count)
}

func TestRunRecords(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)
	ctx := context.Background()

	service := deps.service(&scriptedSynthesizer{products: scriptedProducts(skuRange("D", 1, 3)...)})
	clock := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	service.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	_, err := service.Generate(ctx, 2, "older")
	assert.NoError(err)
	_, err = service.Generate(ctx, 1, "newer")
	assert.NoError(err)

	run, err := service.GetRun("older")
	assert.NoError(err)
	assert.Equal(RunStatusCompleted, run.Status)
	assert.Equal(2, run.Requested)
	assert.Equal(2, run.Inserted)
	assert.True(run.FinishedAt.After(run.StartedAt))

	runs, err := service.ListRuns()
	assert.NoError(err)
	assert.Len(runs, 2)
	assert.Equal("newer", runs[0].RequestID)
	assert.Equal("older", runs[1].RequestID)

	_, err = service.GetRun("unknown")
	assert.True(errors.Is(err, ErrRunNotFound))
}

func TestRunHistoryIsPruned(t *testing.T) {
	assert := require.New(t)
	deps := setupTestDeps(t, assert)
	ctx := context.Background()

	service := deps.service(&scriptedSynthesizer{})
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for i := 0; i < maxRunHistory+5; i++ {
		_, err := service.Generate(ctx, 0, fmt.Sprintf("run-%03d", i))
		assert.NoError(err)
	}

	runs, err := service.ListRuns()
	assert.NoError(err)
	assert.Len(runs, maxRunHistory)
	assert.Equal(fmt.Sprintf("run-%03d", maxRunHistory+4), runs[0].RequestID)

	_, err = service.GetRun("run-000")
	assert.True(errors.Is(err, ErrRunNotFound), "the oldest run should have been pruned")
}

var skuPattern = regexp.MustCompile(`^[A-Z]{3}-[0-9A-Z]+[0-9]{4}$`)

func TestRandomSynthesizer(t *testing.T) {
	assert := require.New(t)
	synthesizer := NewRandomSynthesizer()

	minPrice := decimal.RequireFromString("10.00")
	maxPrice := decimal.RequireFromString("1009.99")
	skus := map[string]struct{}{}

	for i := 0; i < 1000; i++ {
		product := synthesizer.Next()

		assert.Contains(brands, product.Brand)
		assert.Contains(categories, product.Category)
		assert.Regexp(`^`+regexp.QuoteMeta(product.Brand)+` `, product.Name)
		assert.Contains(product.Description, "from "+product.Brand+".")
		assert.True(product.Price.GreaterThanOrEqual(minPrice) && product.Price.LessThanOrEqual(maxPrice), "price %s out of range", product.Price)
		assert.Equal(int32(-2), product.Price.Exponent(), "price should carry two decimals")
		assert.GreaterOrEqual(product.StockQuantity, 1)
		assert.LessOrEqual(product.StockQuantity, maxStock)
		assert.Regexp(skuPattern, product.SKU)

		skus[product.SKU] = struct{}{}
	}

	assert.Greater(len(skus), 990, "skus should rarely collide")
}

func TestResultMessage(t *testing.T) {
	assert := require.New(t)

	assert.Equal("Added 10 products successfully", Result{Inserted: 10}.Message())
	assert.Equal("Added 3 products successfully (2 duplicates skipped)", Result{Inserted: 3, Skipped: 2}.Message())
}
