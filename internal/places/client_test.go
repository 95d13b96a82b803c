package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"leadscout_backend/platform/apperr"
	"leadscout_backend/platform/logger"
)

type providerConfig struct {
	apiKey   string
	baseURL  string
	pageSize int
}

func (c providerConfig) GetSerpAPIKey() string     { return c.apiKey }
func (c providerConfig) GetSerpAPIBaseURL() string { return c.baseURL }
func (c providerConfig) GetSearchPageSize() int    { return c.pageSize }

func newTestClient(t *testing.T, handler http.HandlerFunc, apiKey string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := providerConfig{apiKey: apiKey, baseURL: server.URL, pageSize: 20}
	return NewClient(cfg, logger.New("test")), server
}

func TestFetchParsesResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "padaria em São Paulo" {
			t.Errorf("query param q = %q", got)
		}
		if got := q.Get("start"); got != "40" {
			t.Errorf("query param start = %q, want 40", got)
		}
		if got := q.Get("engine"); got != "google_maps" {
			t.Errorf("query param engine = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"local_results":[
			{"title":"Padaria Estrela","phone":"(11) 98765-4321","address":"Rua A, 10","type":"padaria","rating":4.5,"reviews":120},
			{"title":"","phone":"(11) 90000-0000","address":"Rua B, 20"},
			{"title":"Padaria Lua","address":"Rua C, 30"}
		]}`))
	}, "test-key")

	candidates, err := client.Fetch(context.Background(), "padaria", "São Paulo", 40)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (nameless row dropped)", len(candidates))
	}
	first := candidates[0]
	if first.Name != "Padaria Estrela" || first.Phone != "(11) 98765-4321" || first.Rating != 4.5 {
		t.Errorf("unexpected first candidate: %+v", first)
	}
	if candidates[1].Phone != "" {
		t.Errorf("phoneless candidate should keep empty phone, got %q", candidates[1].Phone)
	}
}

func TestFetchProviderErrorPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":"Google Maps API returned no results"}`))
	}, "test-key")

	_, err := client.Fetch(context.Background(), "padaria", "São Paulo", 0)
	if !apperr.IsKind(err, apperr.KindUpstream) {
		t.Fatalf("expected KindUpstream, got %v", err)
	}
	if domainErr, ok := err.(*apperr.Error); ok {
		if domainErr.Message != "Google Maps API returned no results" {
			t.Errorf("provider message not propagated verbatim: %q", domainErr.Message)
		}
	}
}

func TestFetchTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	cfg := providerConfig{apiKey: "test-key", baseURL: server.URL, pageSize: 20}
	client := NewClient(cfg, logger.New("test"))
	client.http.Timeout = 2 * time.Second

	_, err := client.Fetch(context.Background(), "padaria", "São Paulo", 0)
	if !apperr.IsKind(err, apperr.KindUnavailable) {
		t.Fatalf("expected KindUnavailable, got %v", err)
	}
}

func TestFetchWithoutAPIKeyUsesSynthetic(t *testing.T) {
	cfg := providerConfig{apiKey: "", baseURL: "http://unused.invalid", pageSize: 20}
	client := NewClient(cfg, logger.New("test"))

	first, err := client.Fetch(context.Background(), "padaria", "São Paulo", 0)
	if err != nil {
		t.Fatalf("synthetic fetch must not fail: %v", err)
	}
	if len(first) != 20 {
		t.Fatalf("synthetic batch size = %d, want 20", len(first))
	}

	again, err := client.Fetch(context.Background(), "padaria", "São Paulo", 0)
	if err != nil {
		t.Fatalf("synthetic fetch must not fail: %v", err)
	}
	for i := range first {
		if first[i] != again[i] {
			t.Fatalf("synthetic batch is not deterministic at index %d", i)
		}
	}

	nextPage, _ := client.Fetch(context.Background(), "padaria", "São Paulo", 20)
	if first[0] == nextPage[0] {
		t.Error("different offsets should produce different candidates")
	}
}

func TestSyntheticCandidatesHaveNames(t *testing.T) {
	gen := newSyntheticGenerator()
	for _, c := range gen.Generate("padaria", "São Paulo", 0, 20) {
		if c.Name == "" {
			t.Fatal("synthetic candidate without a name")
		}
	}
}

func TestSyntheticNamesCapitalizeAccentedQueries(t *testing.T) {
	gen := newSyntheticGenerator()
	for _, c := range gen.Generate("ótica esportiva", "São Paulo", 0, 3) {
		if !strings.HasPrefix(c.Name, "Ótica Esportiva") {
			t.Fatalf("name = %q, want an Ótica Esportiva prefix", c.Name)
		}
	}
}
