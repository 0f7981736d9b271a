package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/catalog/api"
	"github.com/meghashyamc/catalog/config"
	"github.com/meghashyamc/catalog/logger"
	"github.com/stretchr/testify/require"
)

func setupTestClient(t *testing.T, assert *require.Assertions) *Client {
	t.Helper()

	t.Setenv("ENV", "test")
	tempDir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(tempDir, "catalog.db"))
	t.Setenv("KVDB_PATH", filepath.Join(tempDir, "runs.db"))
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load()
	assert.NoError(err, "could not load config")

	handler, closeStores, err := api.NewHandler(cfg, logger.New("debug"))
	assert.NoError(err, "could not create handler")

	server := httptest.NewServer(handler)
	t.Cleanup(func() {
		server.Close()
		assert.NoError(closeStores())
	})

	return New(server.URL, WithTimeout(10*time.Second))
}

func TestClientRoundTrip(t *testing.T) {
	assert := require.New(t)
	c := setupTestClient(t, assert)
	ctx := context.Background()

	health, err := c.Health(ctx)
	assert.NoError(err)
	assert.Equal("ok", health.Status)

	result, err := c.Generate(ctx, Count(25))
	assert.NoError(err)
	assert.Equal(25, result.Inserted+result.Skipped)
	assert.NotEmpty(result.RequestID)

	products, err := c.List(ctx)
	assert.NoError(err)
	assert.Len(products, result.Inserted)
	for i := 1; i < len(products); i++ {
		assert.LessOrEqual(products[i-1].Name, products[i].Name)
	}

	count, err := c.Count(ctx)
	assert.NoError(err)
	assert.Equal(int64(result.Inserted), count)

	first := products[0]
	found, err := c.Search(ctx, first.SKU)
	assert.NoError(err)
	assert.NotEmpty(found)
	assert.Equal(first.SKU, found[0].SKU)

	assert.NoError(c.Delete(ctx, first.ID))
	err = c.Delete(ctx, first.ID)
	assert.True(IsNotFound(err), "expected not found, got %v", err)

	message, err := c.Clear(ctx)
	assert.NoError(err)
	assert.Contains(message, "Deleted")

	products, err = c.List(ctx)
	assert.NoError(err)
	assert.Empty(products)
}

func TestClientDefaultCount(t *testing.T) {
	assert := require.New(t)
	c := setupTestClient(t, assert)

	result, err := c.Generate(context.Background(), nil)
	assert.NoError(err)
	assert.Equal(100, result.Inserted+result.Skipped)
}

func TestClientAPIError(t *testing.T) {
	assert := require.New(t)
	c := setupTestClient(t, assert)

	_, err := c.Generate(context.Background(), Count(-1))
	apiErr := &APIError{}
	assert.True(errors.As(err, &apiErr), "expected api error, got %v", err)
	assert.Equal(http.StatusNotAcceptable, apiErr.StatusCode)
	assert.NotEmpty(apiErr.Message)
}

func TestClientRetriesServerErrors(t *testing.T) {
	assert := require.New(t)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, WithRetries(3, time.Millisecond))
	products, err := c.List(context.Background())
	assert.NoError(err)
	assert.Empty(products)
	assert.Equal(int32(3), calls.Load())

	calls.Store(0)
	_, err = c.Clear(context.Background())
	assert.Error(err, "writes should not be retried")
	assert.Equal(int32(1), calls.Load())
}

func TestSearcherLatestRequestWins(t *testing.T) {
	assert := require.New(t)

	slowStarted := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "slow" {
			close(slowStarted)
			<-r.Context().Done()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"name":"Fast Phone","price":10.5,"sku":"FAS-1"}]`))
	}))
	defer server.Close()

	searcher := NewSearcher(New(server.URL))

	slowErr := make(chan error, 1)
	go func() {
		_, err := searcher.Search(context.Background(), "slow")
		slowErr <- err
	}()
	<-slowStarted

	products, err := searcher.Search(context.Background(), "fast")
	assert.NoError(err)
	assert.Len(products, 1)
	assert.Equal("Fast Phone", products[0].Name)
	assert.Equal("10.5", products[0].Price.String())

	select {
	case err := <-slowErr:
		assert.True(errors.Is(err, ErrSuperseded), "expected superseded, got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("superseded search was not cancelled")
	}
}
