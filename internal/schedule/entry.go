package schedule

import (
	"errors"
	"time"
)

const (
	// DateLayout is the ISO calendar date used as the schedule key.
	DateLayout = "2006-01-02"
	// DefaultCountryFlag is used when an entry has no country tag.
	DefaultCountryFlag = "🌍"
)

// Column names shared by the seed artifact and the remote worksheet.
const (
	ColDate         = "date"
	ColArtist       = "artiste"
	ColAlbum        = "album"
	ColGenre        = "genre"
	ColTag          = "tag"
	ColWatched      = "ecoute"
	ColRating       = "note"
	ColReview       = "avis"
	ColAlreadyKnown = "deja_connu"
	ColCountryFlag  = "drapeau"
)

var ErrEntryNotFound = errors.New("schedule entry not found")

// Entry is one scheduled album.
type Entry struct {
	Date         string `json:"date"`
	Artist       string `json:"artiste"`
	Album        string `json:"album"`
	Genre        string `json:"genre"`
	Tag          string `json:"tag"`
	Watched      bool   `json:"ecoute"`
	Rating       int    `json:"note"`
	Review       string `json:"avis"`
	AlreadyKnown bool   `json:"deja_connu,omitempty"`
	CountryFlag  string `json:"drapeau,omitempty"`
}

// Day parses the entry date. The zero time is returned for malformed dates.
func (e Entry) Day() time.Time {
	d, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}
	}
	return d
}

// Record is one loosely typed row as read from a store or the seed artifact.
type Record map[string]any

// Record renders the entry with the columns of the given schema version.
func (e Entry) Record(v SchemaVersion) Record {
	r := Record{
		ColDate:    e.Date,
		ColArtist:  e.Artist,
		ColAlbum:   e.Album,
		ColGenre:   e.Genre,
		ColTag:     e.Tag,
		ColWatched: e.Watched,
		ColRating:  e.Rating,
		ColReview:  e.Review,
	}
	if v >= SchemaV2 {
		r[ColAlreadyKnown] = e.AlreadyKnown
		flag := e.CountryFlag
		if flag == "" {
			flag = DefaultCountryFlag
		}
		r[ColCountryFlag] = flag
	}
	return r
}
