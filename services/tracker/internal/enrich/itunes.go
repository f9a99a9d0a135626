package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Album is what the catalog lookup knows about a release.
type Album struct {
	CoverURL  string `json:"cover_url"`
	Year      string `json:"year"`
	Copyright string `json:"copyright"`
}

// ITunesClient queries the iTunes Search API.
type ITunesClient struct {
	base
	BaseURL    string
	HTTPClient *http.Client
}

func NewITunesClient(baseURL string, opts ...Option) *ITunesClient {
	if baseURL == "" {
		baseURL = "https://itunes.apple.com"
	}
	return &ITunesClient{
		base:       newBase(opts),
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type itunesSearchResponse struct {
	ResultCount int `json:"resultCount"`
	Results     []struct {
		ArtworkURL100 string `json:"artworkUrl100"`
		ReleaseDate   string `json:"releaseDate"`
		Copyright     string `json:"copyright"`
	} `json:"results"`
}

// LookupAlbum returns the first album result for "artist album". The
// artwork is requested at 600x600.
func (c *ITunesClient) LookupAlbum(ctx context.Context, artist, album string) (Album, error) {
	return execute(c.base, func() (Album, error) {
		return c.lookupAlbum(ctx, artist, album)
	})
}

func (c *ITunesClient) lookupAlbum(ctx context.Context, artist, album string) (Album, error) {
	q := url.Values{}
	q.Set("term", strings.TrimSpace(artist+" "+album))
	q.Set("entity", "album")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Album{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "music-odyssey/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Album{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Album{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Album{}, fmt.Errorf("itunes status %d", resp.StatusCode)
	}

	var out itunesSearchResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return Album{}, fmt.Errorf("itunes decode: %w", err)
	}
	if out.ResultCount == 0 || len(out.Results) == 0 {
		return Album{}, ErrNoMatch
	}

	item := out.Results[0]
	a := Album{
		CoverURL:  strings.Replace(item.ArtworkURL100, "100x100", "600x600", 1),
		Copyright: item.Copyright,
	}
	if len(item.ReleaseDate) >= 4 {
		a.Year = item.ReleaseDate[:4]
	}
	return a, nil
}
