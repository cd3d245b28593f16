package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Products known to BackendStub.
const (
	KnownASIN   = "B000000001"
	MissingASIN = "B0000000FF"
)

// NewBackendStub serves a minimal listing backend under /api. KnownASIN resolves to a
// product; any other ASIN answers 404 with a message. Batch items whose ASIN ends in "F"
// fail.
func NewBackendStub(t testing.TB) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	})
	mux.HandleFunc("GET /api/rakuten/categories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]string{{"id": "100371", "name": "PC"}, {"id": "100804", "name": "Interior"}},
		})
	})
	mux.HandleFunc("POST /api/amazon/product", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ASIN string `json:"asin"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ASIN != KnownASIN {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "product not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"asin":           KnownASIN,
				"title":          "Desk Lamp",
				"description":    "Bright\nwarm light",
				"price":          3980,
				"original_price": 3000,
				"markup_rate":    1.3,
				"images":         []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
				"brand":          "Lumen",
				"rating":         4.5,
				"reviews_count":  120,
				"availability":   true,
			},
		})
	})
	mux.HandleFunc("POST /api/rakuten/register", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ASIN  string  `json:"asin"`
			Title string  `json:"title"`
			Price float64 `json:"price"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"status":  "success",
				"asin":    body.ASIN,
				"itemUrl": "https://item.example.com/" + strings.ToLower(body.ASIN),
				"data":    map[string]any{"title": body.Title, "price": body.Price},
			},
		})
	})
	mux.HandleFunc("POST /api/batch/process", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ASINList []string `json:"asinList"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		items := make([]map[string]any, 0, len(body.ASINList))
		for _, asin := range body.ASINList {
			if strings.HasSuffix(asin, "F") {
				items = append(items, map[string]any{"status": "error", "asin": asin, "message": "not found"})
				continue
			}
			items = append(items, map[string]any{"status": "success", "asin": asin, "data": map[string]any{"title": "Item " + asin}})
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": items})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
