// Package ingest loads restaurant data into the vector store, either from
// the Google Places API or from a previously exported JSON file.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// searchTextURL is the Places API (New) text search endpoint.
	searchTextURL = "https://places.googleapis.com/v1/places:searchText"

	// fieldMask limits the response to the fields the indexer consumes.
	fieldMask = "places.id,places.displayName,places.formattedAddress," +
		"places.types,places.rating,places.userRatingCount," +
		"places.priceLevel,places.reviews,nextPageToken"

	// pageSize is the Places API maximum per request.
	pageSize = 20

	defaultHTTPTimeout = 10 * time.Second
)

// Place is one restaurant as returned by the Places API.
type Place struct {
	ID              string   `json:"id"`
	DisplayName     Text     `json:"displayName"`
	FormattedAddr   string   `json:"formattedAddress"`
	Types           []string `json:"types"`
	Rating          float64  `json:"rating"`
	UserRatingCount int      `json:"userRatingCount"`
	PriceLevel      string   `json:"priceLevel"`
	Reviews         []Review `json:"reviews"`
}

// Text is the Places API localized text wrapper.
type Text struct {
	Text string `json:"text"`
}

// Review is one place review; only the text is used.
type Review struct {
	Text Text `json:"text"`
}

type searchResponse struct {
	Places        []Place `json:"places"`
	NextPageToken string  `json:"nextPageToken"`
}

// Client calls the Google Places API.
type Client struct {
	apiKey  string
	baseURL string // tests point this at a local server
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Places API client.
func NewClient(apiKey string, logger *slog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("places api key is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: searchTextURL,
		http:    &http.Client{Timeout: defaultHTTPTimeout},
		logger:  logger,
	}, nil
}

// SearchText runs a text search, following nextPageToken until maxResults
// places are collected or the API runs out of pages.
func (c *Client) SearchText(ctx context.Context, query string, maxResults int) ([]Place, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if maxResults <= 0 {
		maxResults = pageSize
	}

	var all []Place
	pageToken := ""

	for len(all) < maxResults {
		page, next, err := c.searchPage(ctx, query, pageToken)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)

		// The API can return an empty page with a token; stop rather than
		// chase tokens that yield nothing.
		if next == "" || len(page) == 0 {
			break
		}
		pageToken = next
	}

	if len(all) > maxResults {
		all = all[:maxResults]
	}
	c.logger.Debug("places search completed", "query", query, "results", len(all))
	return all, nil
}

func (c *Client) searchPage(ctx context.Context, query, pageToken string) ([]Place, string, error) {
	body := map[string]any{
		"textQuery": query,
		"pageSize":  pageSize,
	}
	if pageToken != "" {
		body["pageToken"] = pageToken
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, "", fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling places API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("places API returned %d: %s", resp.StatusCode, detail)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, "", fmt.Errorf("decoding search response: %w", err)
	}

	return result.Places, result.NextPageToken, nil
}
