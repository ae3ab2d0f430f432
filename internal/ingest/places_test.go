package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/munch-labs/munch/internal/log"
)

func newFakePlacesAPI(t *testing.T, pages []searchResponse) *httptest.Server {
	t.Helper()
	call := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-Goog-Api-Key") == "" {
			t.Error("missing X-Goog-Api-Key header")
		}
		if r.Header.Get("X-Goog-FieldMask") != fieldMask {
			t.Errorf("field mask = %q", r.Header.Get("X-Goog-FieldMask"))
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if call > 0 && body["pageToken"] == nil {
			t.Error("follow-up request missing pageToken")
		}

		if call >= len(pages) {
			t.Errorf("unexpected call %d", call)
			http.Error(w, "too many calls", http.StatusBadRequest)
			return
		}
		if err := json.NewEncoder(w).Encode(pages[call]); err != nil {
			t.Errorf("encode response: %v", err)
		}
		call++
	}))
}

func place(id, name string) Place {
	return Place{
		ID:          id,
		DisplayName: Text{Text: name},
		Rating:      4.2,
		Reviews:     []Review{{Text: Text{Text: "review of " + name}}},
	}
}

func TestSearchTextPaginates(t *testing.T) {
	pages := []searchResponse{
		{Places: []Place{place("p1", "One"), place("p2", "Two")}, NextPageToken: "page2"},
		{Places: []Place{place("p3", "Three")}},
	}
	api := newFakePlacesAPI(t, pages)
	defer api.Close()

	client, err := NewClient("test-key", log.NewNop())
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	client.baseURL = api.URL

	got, err := client.SearchText(context.Background(), "Restaurants in Santa Monica, CA", 10)
	if err != nil {
		t.Fatalf("SearchText() = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("SearchText() returned %d places, want 3", len(got))
	}
	if got[2].ID != "p3" {
		t.Errorf("last place = %q, want p3", got[2].ID)
	}
}

func TestSearchTextStopsOnEmptyPage(t *testing.T) {
	// An empty page carrying a token must terminate pagination, not loop on
	// tokens that yield nothing. The fake API fails the test if a third
	// request arrives.
	pages := []searchResponse{
		{Places: []Place{place("p1", "One")}, NextPageToken: "page2"},
		{NextPageToken: "page3"},
	}
	api := newFakePlacesAPI(t, pages)
	defer api.Close()

	client, err := NewClient("test-key", log.NewNop())
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	client.baseURL = api.URL

	got, err := client.SearchText(context.Background(), "query", 10)
	if err != nil {
		t.Fatalf("SearchText() = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("SearchText() returned %d places, want 1", len(got))
	}
}

func TestSearchTextTruncatesAtMax(t *testing.T) {
	pages := []searchResponse{
		{Places: []Place{place("p1", "One"), place("p2", "Two")}, NextPageToken: "more"},
	}
	api := newFakePlacesAPI(t, pages)
	defer api.Close()

	client, err := NewClient("test-key", log.NewNop())
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	client.baseURL = api.URL

	got, err := client.SearchText(context.Background(), "query", 2)
	if err != nil {
		t.Fatalf("SearchText() = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("SearchText() returned %d places, want max of 2", len(got))
	}
}

func TestSearchTextAPIError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusForbidden)
	}))
	defer api.Close()

	client, err := NewClient("bad-key", log.NewNop())
	if err != nil {
		t.Fatalf("NewClient() = %v", err)
	}
	client.baseURL = api.URL

	if _, err := client.SearchText(context.Background(), "query", 5); err == nil {
		t.Fatal("SearchText() succeeded against failing API")
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("", log.NewNop()); err == nil {
		t.Fatal("NewClient() with empty key succeeded")
	}
}
