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

	"github.com/example/music-odyssey/internal/platform/ratelimit"
)

// Country is the artist's country as an ISO 3166 code and flag emoji.
type Country struct {
	Code string `json:"code"`
	Flag string `json:"flag"`
}

// MusicBrainzClient looks up artist countries. MusicBrainz asks anonymous
// clients to stay under one request per second, so calls share a limiter.
type MusicBrainzClient struct {
	base
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Limiter    *ratelimit.Limiter
}

func NewMusicBrainzClient(baseURL, contact string, limiter *ratelimit.Limiter, opts ...Option) *MusicBrainzClient {
	if baseURL == "" {
		baseURL = "https://musicbrainz.org/ws/2"
	}
	if contact == "" {
		contact = "admin@localhost"
	}
	return &MusicBrainzClient{
		base:       newBase(opts),
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		UserAgent:  fmt.Sprintf("music-odyssey/1.0 ( %s )", contact),
		Limiter:    limiter,
	}
}

type mbArtistResponse struct {
	Artists []struct {
		Name    string `json:"name"`
		Country string `json:"country"`
		Score   int    `json:"score"`
	} `json:"artists"`
}

func (c *MusicBrainzClient) LookupCountry(ctx context.Context, artist string) (Country, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return Country{}, err
	}
	return execute(c.base, func() (Country, error) {
		return c.lookupCountry(ctx, artist)
	})
}

func (c *MusicBrainzClient) lookupCountry(ctx context.Context, artist string) (Country, error) {
	q := url.Values{}
	q.Set("query", fmt.Sprintf("artist:%q", artist))
	q.Set("fmt", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/artist?"+q.Encode(), nil)
	if err != nil {
		return Country{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Country{}, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return Country{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Country{}, fmt.Errorf("musicbrainz status %d", resp.StatusCode)
	}

	var out mbArtistResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return Country{}, fmt.Errorf("musicbrainz decode: %w", err)
	}
	if len(out.Artists) == 0 {
		return Country{}, ErrNoMatch
	}
	code := strings.ToUpper(out.Artists[0].Country)
	flag := FlagEmoji(code)
	if flag == "" {
		return Country{}, ErrNoMatch
	}
	return Country{Code: code, Flag: flag}, nil
}

// FlagEmoji turns a two-letter ISO country code into its regional
// indicator pair. User-assigned codes (X*) and malformed input give "".
func FlagEmoji(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || code[0] == 'X' {
		return ""
	}
	var b strings.Builder
	for i := 0; i < 2; i++ {
		ch := code[i]
		if ch < 'A' || ch > 'Z' {
			return ""
		}
		b.WriteRune(rune(0x1F1E6 + int(ch-'A')))
	}
	return b.String()
}
