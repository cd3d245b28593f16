package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finitefield.org/listing-console/internal/backend"
	"finitefield.org/listing-console/internal/listing"
	"finitefield.org/listing-console/internal/schedule/scheduletest"
)

func newClient(t *testing.T, srv *httptest.Server) *backend.Client {
	t.Helper()
	return backend.New(backend.Options{
		BaseURL:    srv.URL + "/api/",
		HTTPClient: srv.Client(),
	})
}

func TestFetchAmazonProductNormalizesASIN(t *testing.T) {
	t.Parallel()

	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/amazon/product", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"asin":"B08N5WRWNW","title":"Echo Dot","price":5980,"images":["a.jpg"]}}`))
	}))
	t.Cleanup(srv.Close)

	client := newClient(t, srv)
	product, err := client.FetchAmazonProduct(context.Background(), "  b08n5wrwnw ")
	require.NoError(t, err)
	require.Equal(t, "B08N5WRWNW", gotBody["asin"])
	require.Equal(t, "Echo Dot", product.Title)
	require.Equal(t, 5980.0, product.Price)
	require.Equal(t, []string{"a.jpg"}, product.Images)
}

func TestRegisterToRakutenDecodesSingleResult(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/rakuten/register", r.URL.Path)
		var body listing.ProductData
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Lamp", body.Title)
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"success","asin":"B000000001","itemUrl":"lamp-1"}}`))
	}))
	t.Cleanup(srv.Close)

	results, err := newClient(t, srv).RegisterToRakuten(context.Background(), listing.ProductData{ASIN: "B000000001", Title: "Lamp"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Succeeded())
	require.Equal(t, "lamp-1", results[0].ItemURL)
}

func TestUpdateRakutenProductSendsItemURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/rakuten/update", r.URL.Path)
		var body struct {
			ItemURL     string              `json:"itemUrl"`
			ProductData listing.ProductData `json:"productData"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "lamp-1", body.ItemURL)
		require.Equal(t, "Lamp v2", body.ProductData.Title)
		_, _ = w.Write([]byte(`{"success":true,"data":[{"status":"success","itemUrl":"lamp-1"}]}`))
	}))
	t.Cleanup(srv.Close)

	results, err := newClient(t, srv).UpdateRakutenProduct(context.Background(), "lamp-1", listing.ProductData{Title: "Lamp v2"})
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestBatchProcessSendsASINList(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/batch/process", r.URL.Path)
		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"B000000001", "B000000002"}, body["asinList"])
		_, _ = w.Write([]byte(`{"success":true,"data":[{"status":"success","asin":"B000000001"},{"status":"error","asin":"B000000002","message":"not found"}]}`))
	}))
	t.Cleanup(srv.Close)

	results, err := newClient(t, srv).BatchProcess(context.Background(), []string{"B000000001", "B000000002"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.True(t, results[1].Failed())
}

func TestHTTPStatusErrorUsesServerMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/amazon/product":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"ASIN not found"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}
	}))
	t.Cleanup(srv.Close)
	client := newClient(t, srv)

	_, err := client.FetchAmazonProduct(context.Background(), "B000000001")
	var statusErr *backend.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.Status)
	require.Equal(t, "ASIN not found", statusErr.UserMessage())

	_, err = client.BatchProcess(context.Background(), []string{"B000000001"})
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "HTTP Error: 502", statusErr.UserMessage())
}

func TestApplicationErrorOnUnsuccessfulEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"quota exceeded"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := newClient(t, srv).FetchAmazonProduct(context.Background(), "B000000001")
	var appErr *backend.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "quota exceeded", appErr.Message)
}

func TestConnectivityErrorWhenServerUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	client := newClient(t, srv)
	srv.Close()

	_, err := client.FetchAmazonProduct(context.Background(), "B000000001")
	var connErr *backend.ConnectivityError
	require.ErrorAs(t, err, &connErr)
	require.Contains(t, connErr.URL, "/api/amazon/product")
}

func TestTimeoutCancelsRequestAndReleasesTimer(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	clock := scheduletest.NewClock(time.Unix(0, 0))
	client := backend.New(backend.Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Clock:      clock,
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := client.FetchAmazonProduct(context.Background(), "B000000001")
		errCh <- err
	}()

	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	clock.Advance(backend.DefaultTimeout)

	select {
	case err := <-errCh:
		var timeoutErr *backend.TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		require.Equal(t, backend.DefaultTimeout, timeoutErr.After)
	case <-time.After(5 * time.Second):
		t.Fatal("request did not abort after timeout")
	}
	require.Zero(t, clock.Pending())
}

func TestCompletedRequestStopsTimer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	}))
	t.Cleanup(srv.Close)

	clock := scheduletest.NewClock(time.Unix(0, 0))
	client := backend.New(backend.Options{BaseURL: srv.URL, HTTPClient: srv.Client(), Clock: clock})
	require.True(t, client.HealthCheck(context.Background()))
	require.Zero(t, clock.Pending())
}

func TestCallerCancellationIsNotATimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newClient(t, srv).FetchAmazonProduct(ctx, "B000000001")
	require.ErrorIs(t, err, context.Canceled)
	var timeoutErr *backend.TimeoutError
	require.False(t, errors.As(err, &timeoutErr))
}

func TestGetRakutenCategoriesFallsBack(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	categories := newClient(t, srv).GetRakutenCategories(context.Background())
	require.Len(t, categories, 10)
	require.Equal(t, backend.DefaultCategories(), categories)
}

func TestGetRakutenCategoriesFromBackend(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"1","name":"One"}]}`))
	}))
	t.Cleanup(srv.Close)

	categories := newClient(t, srv).GetRakutenCategories(context.Background())
	require.Equal(t, []listing.Category{{ID: "1", Name: "One"}}, categories)
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{name: "top level", status: http.StatusOK, body: `{"status":"healthy"}`, want: true},
		{name: "nested", status: http.StatusOK, body: `{"success":true,"data":{"status":"healthy"}}`, want: true},
		{name: "degraded", status: http.StatusOK, body: `{"status":"degraded"}`, want: false},
		{name: "server error", status: http.StatusServiceUnavailable, body: `{}`, want: false},
		{name: "garbage", status: http.StatusOK, body: `nope`, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/api/health", r.URL.Path)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(srv.Close)
			require.Equal(t, tc.want, newClient(t, srv).HealthCheck(context.Background()))
		})
	}
}

func TestSetBaseURL(t *testing.T) {
	t.Parallel()

	client := backend.New(backend.Options{})
	require.Equal(t, backend.DefaultBaseURL, client.BaseURL())

	require.NoError(t, client.SetBaseURL("https://listing.example.com/api/"))
	require.Equal(t, "https://listing.example.com/api", client.BaseURL())

	require.ErrorIs(t, client.SetBaseURL("ftp://example.com"), backend.ErrInvalidBaseURL)
	require.ErrorIs(t, client.SetBaseURL("not a url"), backend.ErrInvalidBaseURL)
	require.Equal(t, "https://listing.example.com/api", client.BaseURL())
}
