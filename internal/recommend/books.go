package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	googleBooksAPIURL = "https://www.googleapis.com/books/v1/volumes"

	// Long blurbs get cut to keep cards uniform.
	bookDescriptionBudget = 200
)

// GoogleBooksClient is the book catalog provider. Unlike the other two it
// works without a key; one only raises the quota.
type GoogleBooksClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGoogleBooksClient(apiKey string) *GoogleBooksClient {
	return &GoogleBooksClient{
		apiKey:  apiKey,
		baseURL: googleBooksAPIURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type googleBooksResponse struct {
	Items []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Description   string   `json:"description"`
			AverageRating float64  `json:"averageRating"`
			ImageLinks    struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
			InfoLink string `json:"infoLink"`
		} `json:"volumeInfo"`
	} `json:"items"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// BooksForKeywords queries the volumes endpoint once per mapped keyword and
// normalizes hits into Items, truncating descriptions to the card budget.
func (c *GoogleBooksClient) BooksForKeywords(ctx context.Context, keywords []string) ([]Item, error) {
	items := make([]Item, 0, FetchCap)

	for _, keyword := range keywords {
		if len(items) >= FetchCap {
			break
		}

		params := url.Values{}
		params.Set("q", keyword)
		params.Set("maxResults", "10")
		params.Set("printType", "books")
		if credentialSet(c.apiKey) {
			params.Set("key", c.apiKey)
		}

		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Printf("[BOOKS] query %q failed: %v", keyword, err)
			continue
		}

		var parsed googleBooksResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			log.Printf("[BOOKS] decoding response for %q: %v", keyword, err)
			continue
		}
		if parsed.Error != nil {
			log.Printf("[BOOKS] API error for %q: %s", keyword, parsed.Error.Message)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			log.Printf("[BOOKS] query %q returned status %d", keyword, resp.StatusCode)
			continue
		}

		for _, volume := range parsed.Items {
			if len(items) >= FetchCap {
				break
			}

			info := volume.VolumeInfo
			if info.Title == "" || info.InfoLink == "" {
				continue
			}

			item := Item{
				ID:          volume.ID,
				Title:       info.Title,
				Description: truncate(info.Description, bookDescriptionBudget),
				ImageURL:    info.ImageLinks.Thumbnail,
				Link:        info.InfoLink,
			}
			if info.AverageRating > 0 {
				rating := info.AverageRating
				item.Rating = &rating
			}
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no Google Books results for keywords %v", keywords)
	}
	return items, nil
}

func truncate(s string, budget int) string {
	runes := []rune(s)
	if len(runes) <= budget {
		return s
	}
	return string(runes[:budget]) + "..."
}
