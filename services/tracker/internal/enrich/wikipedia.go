package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

// SummaryBudget is the maximum number of characters kept from an article
// summary.
const SummaryBudget = 600

// Article is the encyclopedia entry found for an album.
type Article struct {
	Summary string  `json:"summary"`
	URL     *string `json:"url"`
}

// WikipediaClient searches Wikipedia and fetches the summary of the first
// hit.
type WikipediaClient struct {
	base
	client *resty.Client
}

// NewWikipediaClient targets https://{lang}.wikipedia.org unless baseURL
// is set.
func NewWikipediaClient(lang, baseURL string, opts ...Option) *WikipediaClient {
	if lang == "" {
		lang = "fr"
	}
	if baseURL == "" {
		baseURL = "https://" + lang + ".wikipedia.org"
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "music-odyssey/1.0")
	return &WikipediaClient{base: newBase(opts), client: client}
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type wikiSummaryResponse struct {
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// LookupArticle searches for "album (artist)" and returns the summary of
// the first result.
func (c *WikipediaClient) LookupArticle(ctx context.Context, artist, album string) (Article, error) {
	return execute(c.base, func() (Article, error) {
		return c.lookupArticle(ctx, artist, album)
	})
}

func (c *WikipediaClient) lookupArticle(ctx context.Context, artist, album string) (Article, error) {
	var search wikiSearchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":   "query",
			"list":     "search",
			"srsearch": fmt.Sprintf("%s (%s)", album, artist),
			"srlimit":  "1",
			"format":   "json",
		}).
		SetResult(&search).
		Get("/w/api.php")
	if err != nil {
		return Article{}, err
	}
	if resp.IsError() {
		return Article{}, fmt.Errorf("wikipedia search status %d", resp.StatusCode())
	}
	if len(search.Query.Search) == 0 {
		return Article{}, ErrNoMatch
	}

	title := strings.ReplaceAll(search.Query.Search[0].Title, " ", "_")
	var summary wikiSummaryResponse
	resp, err = c.client.R().
		SetContext(ctx).
		SetPathParam("title", title).
		SetResult(&summary).
		Get("/api/rest_v1/page/summary/{title}")
	if err != nil {
		return Article{}, err
	}
	if resp.StatusCode() == 404 {
		return Article{}, ErrNoMatch
	}
	if resp.IsError() {
		return Article{}, fmt.Errorf("wikipedia summary status %d", resp.StatusCode())
	}
	if strings.TrimSpace(summary.Extract) == "" {
		return Article{}, ErrNoMatch
	}

	a := Article{Summary: truncate(summary.Extract, SummaryBudget)}
	if u := summary.ContentURLs.Desktop.Page; u != "" {
		a.URL = &u
	}
	return a, nil
}

// truncate cuts s to max characters and marks the cut with "...".
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
