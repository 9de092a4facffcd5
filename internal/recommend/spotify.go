package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"github.com/moodlens/moodlens/internal/observability"
)

const (
	spotifyAPIURL   = "https://api.spotify.com/v1"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// Refresh this long before the provider-reported expiry to avoid
	// racing the deadline on a slow request.
	tokenExpiryMargin = 30 * time.Second
)

// TokenCache holds the single bearer token shared by all Spotify calls.
// Refreshes are single-flight: concurrent callers of a missing or expired
// token trigger exactly one grant request.
type TokenCache struct {
	conf *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
	group singleflight.Group
}

func NewTokenCache(clientID, clientSecret string) *TokenCache {
	return &TokenCache{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		},
	}
}

// Token returns the cached bearer token, fetching a fresh one when the
// cache is empty, expired, or force is set.
func (tc *TokenCache) Token(ctx context.Context, force bool) (*oauth2.Token, error) {
	tc.mu.Lock()
	cached := tc.token
	tc.mu.Unlock()

	if !force && cached != nil && cached.Expiry.After(time.Now().Add(tokenExpiryMargin)) {
		return cached, nil
	}

	result, err, _ := tc.group.Do("token", func() (any, error) {
		token, err := tc.conf.Token(ctx)
		if err != nil {
			observability.TokenRefreshes.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("client credentials grant: %w", err)
		}
		observability.TokenRefreshes.WithLabelValues("ok").Inc()

		tc.mu.Lock()
		tc.token = token
		tc.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*oauth2.Token), nil
}

// Invalidate drops the cached token. Called when the API answers 401.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.token = nil
	tc.mu.Unlock()
}

// SpotifyClient is the music catalog provider.
type SpotifyClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokens       *TokenCache
	httpClient   *http.Client
}

func NewSpotifyClient(clientID, clientSecret string) *SpotifyClient {
	return &SpotifyClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      spotifyAPIURL,
		tokens:       NewTokenCache(clientID, clientSecret),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Tokens exposes the cache for the token-refresh endpoint.
func (c *SpotifyClient) Tokens() *TokenCache { return c.tokens }

func (c *SpotifyClient) Configured() bool {
	return credentialSet(c.clientID) && credentialSet(c.clientSecret)
}

type spotifyTrack struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
	PreviewURL string `json:"preview_url"`
}

type spotifyRecommendationsResponse struct {
	Tracks []spotifyTrack `json:"tracks"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// TracksForMood tries the genre-seeded recommendations endpoint first (the
// highest-quality source), then backfills with keyword search when it comes
// up short of the display cap.
func (c *SpotifyClient) TracksForMood(ctx context.Context, genres, keywords []string) ([]Item, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("Spotify credentials not configured")
	}

	items := make([]Item, 0, FetchCap)

	tracks, err := c.recommendations(ctx, genres)
	if err != nil {
		log.Printf("[SPOTIFY] recommendations failed: %v", err)
	} else {
		items = appendTracks(items, tracks)
	}

	if len(items) < DisplayCap {
		for _, keyword := range keywords {
			if len(items) >= FetchCap {
				break
			}
			tracks, err := c.searchTracks(ctx, keyword)
			if err != nil {
				log.Printf("[SPOTIFY] search %q failed: %v", keyword, err)
				continue
			}
			items = appendTracks(items, tracks)
		}
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no Spotify results for genres %v", genres)
	}
	return items, nil
}

func (c *SpotifyClient) recommendations(ctx context.Context, genres []string) ([]spotifyTrack, error) {
	params := url.Values{}
	params.Set("seed_genres", strings.Join(genres, ","))
	params.Set("limit", "10")

	var parsed spotifyRecommendationsResponse
	if err := c.get(ctx, "/recommendations", params, &parsed); err != nil {
		return nil, err
	}
	return parsed.Tracks, nil
}

func (c *SpotifyClient) searchTracks(ctx context.Context, query string) ([]spotifyTrack, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("type", "track")
	params.Set("limit", "10")

	var parsed spotifySearchResponse
	if err := c.get(ctx, "/search", params, &parsed); err != nil {
		return nil, err
	}
	return parsed.Tracks.Items, nil
}

// get performs an authenticated GET. A 401 clears the cached token and
// retries exactly once with a fresh one; a second 401 is a hard failure.
func (c *SpotifyClient) get(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.do(ctx, path, params, false)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		c.tokens.Invalidate()
		log.Printf("[SPOTIFY] token rejected, re-authenticating once")
		resp, err = c.do(ctx, path, params, true)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Spotify API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *SpotifyClient) do(ctx context.Context, path string, params url.Values, forceToken bool) (*http.Response, error) {
	token, err := c.tokens.Token(ctx, forceToken)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

func appendTracks(items []Item, tracks []spotifyTrack) []Item {
	for _, track := range tracks {
		if len(items) >= FetchCap {
			break
		}

		artists := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			artists = append(artists, a.Name)
		}

		title := track.Name
		if len(artists) > 0 {
			title = track.Name + " - " + strings.Join(artists, ", ")
		}

		item := Item{
			ID:          track.ID,
			Title:       title,
			Description: strings.Join(artists, ", "),
			Link:        track.ExternalURLs.Spotify,
			PreviewURL:  track.PreviewURL,
		}
		if len(track.Album.Images) > 0 {
			item.ImageURL = track.Album.Images[0].URL
		}
		if item.Link == "" && track.ID != "" {
			item.Link = "https://open.spotify.com/track/" + track.ID
		}
		items = append(items, item)
	}
	return items
}

// credentialSet treats empty and placeholder values as unconfigured.
func credentialSet(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "your-key-here", "your-secret-here", "changeme", "xxx":
		return false
	}
	return true
}
