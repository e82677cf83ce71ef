package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchSiteScopesQueryAndSetsHeaders(t *testing.T) {
	var captured searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-API-KEY"); got != "secret" {
			t.Errorf("unexpected api key header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"HR-2023-1234-A","link":"https://lovdata.no/avgjorelser/hr-2023-1234-a","snippet":"Høyesterett..."},
			{"title":"HR-2022-99-A","link":"https://lovdata.no/avgjorelser/hr-2022-99-a"}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "no", nil)
	results, err := client.SearchSite(context.Background(), "oppsigelse prøvetid", "lovdata.no", 5)
	if err != nil {
		t.Fatalf("SearchSite() error = %v", err)
	}
	if captured.Query != "site:lovdata.no oppsigelse prøvetid" {
		t.Fatalf("unexpected scoped query %q", captured.Query)
	}
	if captured.Country != "no" || captured.Num != 5 {
		t.Fatalf("unexpected request %+v", captured)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "HR-2023-1234-A" {
		t.Fatalf("unexpected first result %+v", results[0])
	}
}

func TestSearchSiteTruncatesToLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"A","link":"https://lovdata.no/a/b"},
			{"title":"B","link":"https://lovdata.no/a/c"},
			{"title":"C","link":"https://lovdata.no/a/d"}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "", nil)
	results, err := client.SearchSite(context.Background(), "dom", "lovdata.no", 2)
	if err != nil {
		t.Fatalf("SearchSite() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected limit applied, got %d results", len(results))
	}
}

func TestSearchSiteRejectsEmptyQuery(t *testing.T) {
	client := New("http://unused.invalid", "secret", "", nil)
	if _, err := client.SearchSite(context.Background(), "   ", "lovdata.no", 5); err == nil {
		t.Fatal("expected error for empty query")
	}
}
