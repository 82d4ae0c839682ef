package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/currency-widget/internal/application/service"
	"github.com/damon-houk/currency-widget/internal/domain/entity"
	"github.com/damon-houk/currency-widget/internal/infrastructure/api"
	"github.com/damon-houk/currency-widget/internal/infrastructure/cache"
	"github.com/damon-houk/currency-widget/internal/infrastructure/chart"
	"github.com/damon-houk/currency-widget/internal/infrastructure/db"
	"github.com/damon-houk/currency-widget/internal/infrastructure/handler"
	"github.com/damon-houk/currency-widget/internal/infrastructure/logger"
	"github.com/damon-houk/currency-widget/internal/infrastructure/metrics"
	"github.com/damon-houk/currency-widget/internal/infrastructure/middleware"
	"github.com/damon-houk/currency-widget/internal/infrastructure/view"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream imitates the public rate API
type fakeUpstream struct {
	server          *httptest.Server
	latestCalls     int32
	historicalCalls int32
	failing         atomic.Bool
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.failing.Load() {
			http.Error(w, "upstream down", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v4/latest/"):
			atomic.AddInt32(&f.latestCalls, 1)
			base := strings.TrimPrefix(r.URL.Path, "/v4/latest/")
			fmt.Fprintf(w, `{"base":%q,"time_last_updated":1709251201,"rates":%s}`, base, ratesFor(base))
		case strings.HasPrefix(r.URL.Path, "/v4/history/"):
			atomic.AddInt32(&f.historicalCalls, 1)
			parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v4/history/"), "/")
			fmt.Fprintf(w, `{"base":%q,"target":%q,"rates":{"2024-01-01":0.91,"2024-02-01":0.92}}`, parts[0], parts[1])
		default:
			http.NotFound(w, r)
		}
	}))
	return f
}

func ratesFor(base string) string {
	if base == "EUR" {
		return `{"EUR":1,"USD":1.087,"GBP":0.86,"JPY":163.2}`
	}
	return `{"USD":1,"EUR":0.92,"GBP":0.8,"JPY":150,"CHF":0.88,"CAD":1.36,"AUD":1.52}`
}

type testApp struct {
	server   *httptest.Server
	upstream *fakeUpstream
	metrics  *metrics.Metrics
	renderer *chart.ChartJSRenderer
}

// setupTestServer wires the full stack over an in-memory badger store
func setupTestServer(t *testing.T) *testApp {
	t.Helper()

	log := logger.NewJSONLogger(io.Discard, logger.InfoLevel)
	m := metrics.New()
	upstream := newFakeUpstream()

	badgerDB, err := db.OpenBadger("")
	require.NoError(t, err)
	store := db.NewBadgerStore(badgerDB)

	localCache := cache.NewLocalCache(store, log, m)
	client := api.NewRateAPIClient(upstream.server.Client(), log,
		api.WithRatesURL(upstream.server.URL+"/v4/latest/"),
		api.WithHistoricalURL(upstream.server.URL+"/v4/history/"),
		api.WithMetrics(m),
	)

	conversion := service.NewConversionService(client, log, m)
	prefs := service.NewPreferenceService(localCache, log)
	historical := service.NewHistoricalService(client, localCache, log)
	catalog := service.NewCurrencyService(client, localCache, []string{"USD", "EUR", "GBP", "JPY"}, nil, log)
	renderer := chart.NewChartJSRenderer()

	widget := view.New(conversion, prefs, catalog, renderer, log, m)
	_, err = widget.Load(context.Background())
	require.NoError(t, err)

	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware(m))
	handler.NewWidgetHandler(widget, catalog, historical, prefs, log).RegisterRoutes(router)
	handler.NewPageHandler(widget, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), log).RegisterRoutes(router)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	server := httptest.NewServer(middleware.RequestIDMiddleware(middleware.LoggingMiddleware(log)(router)))

	t.Cleanup(func() {
		server.Close()
		upstream.server.Close()
		store.Close()
	})

	return &testApp{server: server, upstream: upstream, metrics: m, renderer: renderer}
}

func postAction(t *testing.T, app *testApp, action, body string) (*http.Response, view.State) {
	t.Helper()

	resp, err := http.Post(app.server.URL+"/api/actions/"+action, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var state view.State
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	}
	return resp, state
}

func decodeError(t *testing.T, resp *http.Response) handler.ErrorResponse {
	t.Helper()
	defer resp.Body.Close()

	var errResp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	return errResp
}

func TestInitialState(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app := setupTestServer(t)

	resp, err := http.Get(app.server.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	var state view.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))

	assert.Equal(t, entity.DefaultPreferences(), state.Preferences)
	assert.Equal(t, []string{"AUD", "CAD", "CHF", "EUR", "GBP", "JPY", "USD"}, state.Currencies)
	assert.Len(t, state.Rates, 4)
	assert.Len(t, state.PopularPairs, 6)
	require.NotNil(t, state.Chart)
	assert.Equal(t, "Exchange Rate (USD to EUR)", state.Chart.Data.Datasets[0].Label)
	assert.Empty(t, state.Status)
}

func TestConvertFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app := setupTestServer(t)

	resp, state := postAction(t, app, "convert", `{"amount":"100","from":"USD","to":"EUR"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100 USD = 92.00 EUR", state.Result)
	require.NotNil(t, state.LastResult)
	assert.Equal(t, time.Unix(1709251201, 0).Local().Unix(), state.LastResult.RateTimestamp.Unix())

	t.Run("Invalid amount shows a status", func(t *testing.T) {
		before := atomic.LoadInt32(&app.upstream.latestCalls)

		_, state := postAction(t, app, "convert", `{"amount":"abc"}`)

		assert.Equal(t, view.StatusInvalidInput, state.Status)
		assert.Equal(t, "100 USD = 92.00 EUR", state.Result)
		assert.Equal(t, before, atomic.LoadInt32(&app.upstream.latestCalls))
	})

	t.Run("Upstream failure keeps the previous result", func(t *testing.T) {
		app.upstream.failing.Store(true)
		defer app.upstream.failing.Store(false)

		_, state := postAction(t, app, "convert", `{"amount":"7","from":"USD","to":"GBP"}`)

		assert.Equal(t, view.StatusFetchFailed, state.Status)
		assert.Equal(t, "100 USD = 92.00 EUR", state.Result)
	})

	t.Run("Lowercase code is rejected by request validation", func(t *testing.T) {
		resp, _ := postAction(t, app, "convert", `{"amount":"1","from":"usd"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errResp := decodeError(t, resp)
		assert.Equal(t, "Validation failed", errResp.Error)
		assert.NotEmpty(t, errResp.RequestID)
	})
}

func TestActions(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app := setupTestServer(t)

	t.Run("Theme toggle persists across reset", func(t *testing.T) {
		_, state := postAction(t, app, "theme-toggle", "")
		assert.Equal(t, entity.ThemeDark, state.Preferences.Theme)

		_, state = postAction(t, app, "reset", "")
		assert.Equal(t, entity.ThemeDark, state.Preferences.Theme)
	})

	t.Run("Chart redraw replaces the previous instance", func(t *testing.T) {
		_, state := postAction(t, app, "update-chart", `{"base":"GBP","target":"JPY"}`)

		require.NotNil(t, state.Chart)
		assert.Equal(t, "Exchange Rate (GBP to JPY)", state.Chart.Data.Datasets[0].Label)
		assert.Equal(t, 1, app.renderer.Live())
	})

	t.Run("Dropdown change saves the selection", func(t *testing.T) {
		_, state := postAction(t, app, "dropdown-change", `{"selector":"fromCurrency","value":"EUR"}`)
		assert.Equal(t, "EUR", state.Preferences.FromCurrency)
		assert.Len(t, state.Rates, 4)

		resp, err := http.Get(app.server.URL + "/api/preferences")
		require.NoError(t, err)
		defer resp.Body.Close()

		var prefs entity.UserPreferences
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&prefs))
		assert.Equal(t, "EUR", prefs.FromCurrency)
		assert.Equal(t, "GBP", prefs.ChartBaseCurrency)
		assert.Equal(t, entity.ThemeDark, prefs.Theme)
	})

	t.Run("Unknown action", func(t *testing.T) {
		resp, _ := postAction(t, app, "zoom", "{}")

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Unknown action", decodeError(t, resp).Error)
	})

	t.Run("Malformed body", func(t *testing.T) {
		resp, _ := postAction(t, app, "convert", "{")

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid request body", decodeError(t, resp).Error)
	})
}

func TestCatalogEndpoints(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app := setupTestServer(t)

	t.Run("Currency list is memoized", func(t *testing.T) {
		before := atomic.LoadInt32(&app.upstream.latestCalls)

		resp, err := http.Get(app.server.URL + "/api/currencies")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body handler.CurrenciesResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Contains(t, body.Currencies, "EUR")
		assert.Equal(t, before, atomic.LoadInt32(&app.upstream.latestCalls))
	})

	t.Run("Rates table", func(t *testing.T) {
		resp, err := http.Get(app.server.URL + "/api/rates/EUR")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body handler.RatesResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "EUR", body.Base)
		assert.Equal(t, []entity.RateRow{
			{Currency: "EUR", Rate: 1},
			{Currency: "GBP", Rate: 0.86},
			{Currency: "JPY", Rate: 163.2},
			{Currency: "USD", Rate: 1.087},
		}, body.Rates)
	})

	t.Run("Invalid base", func(t *testing.T) {
		resp, err := http.Get(app.server.URL + "/api/rates/euro")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("Popular pairs", func(t *testing.T) {
		resp, err := http.Get(app.server.URL + "/api/popular")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body handler.PopularPairsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Pairs, 6)
		assert.Equal(t, entity.PopularPair{From: "USD", To: "JPY", Rate: 150}, body.Pairs[1])
	})

	t.Run("Historical series is fetched once", func(t *testing.T) {
		var first, second []byte
		for i, dst := range []*[]byte{&first, &second} {
			resp, err := http.Get(app.server.URL + "/api/historical/USD/EUR")
			require.NoError(t, err, "request %d", i)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			*dst, err = io.ReadAll(resp.Body)
			require.NoError(t, err)
			resp.Body.Close()
		}

		assert.JSONEq(t, string(first), string(second))
		assert.Equal(t, int32(1), atomic.LoadInt32(&app.upstream.historicalCalls))
	})

	t.Run("Upstream outage maps to 503", func(t *testing.T) {
		app.upstream.failing.Store(true)
		defer app.upstream.failing.Store(false)

		resp, err := http.Get(app.server.URL + "/api/rates/USD")
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "Exchange rate service unavailable", decodeError(t, resp).Error)
	})
}

func TestPreferencesEndpoint(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app := setupTestServer(t)

	put := func(body string) *http.Response {
		req, err := http.NewRequest(http.MethodPut, app.server.URL+"/api/preferences", strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}

	resp := put(`{"fromCurrency":"GBP","toCurrency":"JPY","chartBaseCurrency":"EUR","chartTargetCurrency":"USD","theme":"dark"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	stateResp, err := http.Get(app.server.URL + "/api/state")
	require.NoError(t, err)
	defer stateResp.Body.Close()

	var state view.State
	require.NoError(t, json.NewDecoder(stateResp.Body).Decode(&state))
	assert.Equal(t, "GBP", state.Preferences.FromCurrency)
	assert.Equal(t, "Exchange Rate (EUR to USD)", state.Chart.Data.Datasets[0].Label)

	resp = put(`{"fromCurrency":"GBP","toCurrency":"JPY","chartBaseCurrency":"EUR","chartTargetCurrency":"USD","theme":"sepia"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestPageAndMetrics(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	app := setupTestServer(t)

	resp, err := http.Get(app.server.URL + "/")
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(page), `id="reset-button"`)
	assert.Contains(t, string(page), `id="last-modified">03/01/2024 12:00:00`)

	resp, err = http.Get(app.server.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(body), `http_requests_total{method="GET",route="/",status="200"} 1`)
	assert.Contains(t, string(body), "rate_api_requests_total")
}
