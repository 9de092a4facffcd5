package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const omdbAPIURL = "https://www.omdbapi.com/"

// OMDbClient is the movie metadata provider.
type OMDbClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOMDbClient(apiKey string) *OMDbClient {
	return &OMDbClient{
		apiKey:  apiKey,
		baseURL: omdbAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type omdbSearchHit struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Poster string `json:"Poster"`
}

type omdbSearchResponse struct {
	Search   []omdbSearchHit `json:"Search"`
	Response string          `json:"Response"`
	Error    string          `json:"Error"`
}

type omdbDetailResponse struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDbRating string `json:"imdbRating"`
	IMDbID     string `json:"imdbID"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// MoviesForTerms searches OMDb once per mapped term, then fetches detail
// records to fill in plot, rating, and poster. Collects up to FetchCap
// candidates across all terms; the aggregator shuffles and trims.
func (c *OMDbClient) MoviesForTerms(ctx context.Context, terms []string) ([]Item, error) {
	if !credentialSet(c.apiKey) {
		return nil, fmt.Errorf("OMDb API key not configured")
	}

	items := make([]Item, 0, FetchCap)
	for _, term := range terms {
		if len(items) >= FetchCap {
			break
		}

		hits, err := c.search(ctx, term)
		if err != nil {
			log.Printf("[OMDB] search %q failed: %v", term, err)
			continue
		}

		for _, hit := range hits {
			if len(items) >= FetchCap {
				break
			}

			item, err := c.detail(ctx, hit.IMDbID)
			if err != nil {
				// Fall back to search-level fields; a card can render
				// without plot and rating.
				log.Printf("[OMDB] detail %s failed: %v", hit.IMDbID, err)
				items = append(items, Item{
					ID:       hit.IMDbID,
					Title:    hit.Title,
					ImageURL: posterOrEmpty(hit.Poster),
					Link:     imdbLink(hit.IMDbID),
				})
				continue
			}
			items = append(items, *item)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no OMDb results for terms %v", terms)
	}
	return items, nil
}

func (c *OMDbClient) search(ctx context.Context, term string) ([]omdbSearchHit, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("s", term)
	params.Set("type", "movie")

	var parsed omdbSearchResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, err
	}
	if parsed.Response != "True" {
		return nil, fmt.Errorf("OMDb API error: %s", parsed.Error)
	}
	return parsed.Search, nil
}

func (c *OMDbClient) detail(ctx context.Context, imdbID string) (*Item, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", imdbID)
	params.Set("plot", "short")

	var parsed omdbDetailResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, err
	}
	if parsed.Response != "True" {
		return nil, fmt.Errorf("OMDb API error: %s", parsed.Error)
	}

	item := &Item{
		ID:          parsed.IMDbID,
		Title:       parsed.Title,
		Description: parsed.Plot,
		ImageURL:    posterOrEmpty(parsed.Poster),
		Link:        imdbLink(parsed.IMDbID),
	}
	if rating, err := strconv.ParseFloat(parsed.IMDbRating, 64); err == nil {
		item.Rating = &rating
	}
	return item, nil
}

func (c *OMDbClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OMDb API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func imdbLink(imdbID string) string {
	return "https://www.imdb.com/title/" + imdbID + "/"
}

// posterOrEmpty filters OMDb's literal "N/A" placeholder.
func posterOrEmpty(poster string) string {
	if poster == "N/A" {
		return ""
	}
	return poster
}
