package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	fatSecretTokenURL  = "https://oauth.fatsecret.com/connect/token"
	fatSecretSearchURL = "https://platform.fatsecret.com/rest/foods/search/v1"
	MaxExternalResults = 50
)

type FatSecretConfig struct {
	ClientID     string
	ClientSecret string
	// TokenURL and SearchURL default to the public FatSecret endpoints.
	TokenURL  string
	SearchURL string
	Timeout   time.Duration
}

// FatSecretService proxies food searches to the FatSecret platform API.
type FatSecretService struct {
	searchURL string
	client    *http.Client
}

// NewFatSecretService returns nil when credentials are missing.
func NewFatSecretService(cfg FatSecretConfig) *FatSecretService {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = fatSecretTokenURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = fatSecretSearchURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	base := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{"basic"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	// The token source caches the access token until it expires.
	client := cc.Client(context.WithValue(context.Background(), oauth2.HTTPClient, base))
	client.Timeout = cfg.Timeout

	return &FatSecretService{searchURL: cfg.SearchURL, client: client}
}

type ExternalFood struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       *string `json:"brand"`
	Description string  `json:"description"`
}

type fatSecretFood struct {
	FoodID          string  `json:"food_id"`
	FoodName        string  `json:"food_name"`
	BrandName       *string `json:"brand_name"`
	FoodDescription string  `json:"food_description"`
}

type fatSecretSearchResponse struct {
	Foods struct {
		// A single match comes back as an object instead of an array.
		Food json.RawMessage `json:"food"`
	} `json:"foods"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SearchFoods runs foods.search. page is zero based; maxResults is capped at
// MaxExternalResults.
func (s *FatSecretService) SearchFoods(ctx context.Context, query string, page, maxResults int) ([]ExternalFood, error) {
	if s == nil {
		return nil, ErrSearchDisabled
	}
	if maxResults > MaxExternalResults {
		maxResults = MaxExternalResults
	}

	q := url.Values{}
	q.Set("search_expression", query)
	q.Set("page_number", strconv.Itoa(page))
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.searchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: call foods.search: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read foods.search response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: foods.search status %d: %s", ErrUpstream, resp.StatusCode, string(body))
	}

	var sr fatSecretSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: parse foods.search JSON: %v", ErrUpstream, err)
	}
	if sr.Error != nil {
		return nil, fmt.Errorf("%w: foods.search error %d: %s", ErrUpstream, sr.Error.Code, sr.Error.Message)
	}

	foods, err := decodeFoods(sr.Foods.Food)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	results := make([]ExternalFood, 0, len(foods))
	for _, f := range foods {
		results = append(results, ExternalFood{
			ID:          f.FoodID,
			Name:        f.FoodName,
			Brand:       f.BrandName,
			Description: f.FoodDescription,
		})
	}
	return results, nil
}

func decodeFoods(raw json.RawMessage) ([]fatSecretFood, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var one fatSecretFood
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("parse food: %w", err)
		}
		return []fatSecretFood{one}, nil
	}
	var many []fatSecretFood
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("parse foods: %w", err)
	}
	return many, nil
}
