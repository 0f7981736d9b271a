// Common test helpers
package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/catalog/config"
	"github.com/meghashyamc/catalog/db/kvdb"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/logger"
	"github.com/meghashyamc/catalog/services/catalog"
	"github.com/meghashyamc/catalog/services/generate"
	"github.com/meghashyamc/catalog/services/search"
	"github.com/meghashyamc/catalog/validation"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	rawRequestBody   string
	queryParams      map[string]string
	expectedStatus   int
	expectedResponse any
}

type testServer struct {
	router   *gin.Engine
	products *productdb.GormDB
}

func newTestLogger() logger.Logger {

	opts := &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stderr, opts)
	return slog.New(handler)
}

func setupTestServer(t *testing.T, assert *require.Assertions) *testServer {

	t.Setenv("ENV", "test")
	tempDir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(tempDir, "catalog.db"))
	t.Setenv("KVDB_PATH", filepath.Join(tempDir, "runs.db"))
	t.Setenv("GENERATE_MAX_COUNT", "500")

	cfg, err := config.Load()
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()

	products, err := productdb.New(testLogger, cfg)
	assert.NoError(err, "could not create product database")
	runs, err := kvdb.New(testLogger, cfg)
	assert.NoError(err, "could not create kv database")
	validator, err := validation.New(testLogger, validation.Limits{
		MaxGenerateCount:  cfg.GetGenerateMaxCount(),
		MaxSearchTermSize: cfg.GetSearchMaxTermLength(),
	})
	assert.NoError(err, "could not create validator")

	gin.SetMode(gin.TestMode)
	router := gin.New()

	SetupProducts(router, testLogger, search.New(testLogger, products, nil), catalog.New(testLogger, products), validator)
	SetupGenerate(router, testLogger, generate.New(testLogger, products, runs, nil, nil), validator, cfg.GetGenerateDefaultCount())

	t.Cleanup(func() {
		assert.NoError(products.Close(), "could not close product database")
		assert.NoError(runs.Close(), "could not close kv database")
	})

	return &testServer{router: router, products: products}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]any, rawBody string, queryParams map[string]string) *httptest.ResponseRecorder {

	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}

	jsonBody := []byte(rawBody)
	if requestBodyMap != nil {
		var err error
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	slog.Info("Making test request", "method", method, "endpoint", endpoint, "headers", headers, "body", string(jsonBody))

	var req *http.Request
	var err error
	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

func runTestCases(t *testing.T, router *gin.Engine, method string, endpoint string, testCases []testCase) {
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			w := makeTestHTTPRequest(router, assert, method, endpoint, testCase.requestHeaders, testCase.requestBody, testCase.rawRequestBody, testCase.queryParams)
			assert.Equal(testCase.expectedStatus, w.Code, "response gotten was %s", w.Body.String())

			if testCase.expectedResponse != nil {
				expected, err := json.Marshal(testCase.expectedResponse)
				assert.NoError(err)
				assert.JSONEq(string(expected), w.Body.String())
			}
		})
	}
}

func decodeProducts(assert *require.Assertions, w *httptest.ResponseRecorder) []productdb.Product {
	products := []productdb.Product{}
	assert.NoError(json.Unmarshal(w.Body.Bytes(), &products), "could not decode products from %s", w.Body.String())
	return products
}

func productNames(products []productdb.Product) []string {
	names := make([]string, 0, len(products))
	for _, product := range products {
		names = append(names, product.Name)
	}
	return names
}
