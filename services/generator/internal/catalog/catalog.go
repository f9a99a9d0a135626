package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/example/music-odyssey/internal/schedule"
)

// Placeholder wording for the free days that pad a short catalog.
const (
	PlaceholderArtistPrefix = "Free Day"
	PlaceholderAlbum        = "Pick one!"
	PlaceholderGenre        = "Free choice"
	PlaceholderTag          = "Joker"
)

// Album is one curated (artist, album) pair before it gets a date.
type Album struct {
	Artist string
	Album  string
	Genre  string
	Tag    string
}

// Builder accumulates albums, skipping any (artist, album) pair it has
// already seen.
type Builder struct {
	albums []Album
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends the album unless the same artist and album title are already
// present. It reports whether the album was added.
func (b *Builder) Add(artist, album, genre, tag string) bool {
	for _, a := range b.albums {
		if a.Artist == artist && a.Album == album {
			return false
		}
	}
	b.albums = append(b.albums, Album{Artist: artist, Album: album, Genre: genre, Tag: tag})
	return true
}

func (b *Builder) Len() int { return len(b.albums) }

// Albums returns the accumulated albums in insertion order.
func (b *Builder) Albums() []Album {
	out := make([]Album, len(b.albums))
	copy(out, b.albums)
	return out
}

// Result is a finalized schedule plus how many free days were added.
type Result struct {
	Table        *schedule.Table
	Placeholders int
}

// Finalize shuffles albums, truncates or pads them to exactly target
// entries, and assigns consecutive dates from start. rng may be nil to use
// the global source.
func Finalize(albums []Album, target int, start time.Time, rng *rand.Rand) (Result, error) {
	if target <= 0 {
		return Result{}, fmt.Errorf("target count must be positive, got %d", target)
	}
	if start.IsZero() {
		return Result{}, errors.New("start date is required")
	}

	b := NewBuilder()
	for _, a := range albums {
		b.Add(a.Artist, a.Album, a.Genre, a.Tag)
	}
	pool := b.albums

	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	placeholders := 0
	if len(pool) >= target {
		b.albums = pool[:target]
	} else {
		for n := 1; b.Len() < target; n++ {
			if b.Add(fmt.Sprintf("%s %d", PlaceholderArtistPrefix, n), PlaceholderAlbum, PlaceholderGenre, PlaceholderTag) {
				placeholders++
			}
		}
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	entries := make([]schedule.Entry, 0, target)
	for i, a := range b.albums {
		entries = append(entries, schedule.Entry{
			Date:        day.AddDate(0, 0, i).Format(schedule.DateLayout),
			Artist:      a.Artist,
			Album:       a.Album,
			Genre:       a.Genre,
			Tag:         a.Tag,
			CountryFlag: schedule.DefaultCountryFlag,
		})
	}
	return Result{Table: schedule.NewTable(entries), Placeholders: placeholders}, nil
}
