package schedule

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const maxRating = 5

var truthy = map[string]bool{
	"true": true, "1": true, "yes": true, "y": true,
	"vrai": true, "oui": true, "x": true,
}

// Normalize coerces loosely typed rows into a Table. Missing or null flags
// become false, ratings that do not parse as an integer in 0..5 become 0,
// null text becomes "". Rows without a usable date are dropped.
// Normalizing the records of an already normalized table yields the same
// table.
func Normalize(records []Record, v SchemaVersion) *Table {
	entries := make([]Entry, 0, len(records))
	for _, r := range records {
		e, ok := normalizeRecord(r, v)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	return NewTable(entries)
}

func normalizeRecord(r Record, v SchemaVersion) (Entry, bool) {
	date, ok := toDate(r[ColDate])
	if !ok {
		return Entry{}, false
	}
	e := Entry{
		Date:    date,
		Artist:  toText(r[ColArtist]),
		Album:   toText(r[ColAlbum]),
		Genre:   toText(r[ColGenre]),
		Tag:     toText(r[ColTag]),
		Watched: toBool(r[ColWatched]),
		Rating:  toRating(r[ColRating]),
		Review:  toText(r[ColReview]),
	}
	if v >= SchemaV2 {
		e.AlreadyKnown = toBool(r[ColAlreadyKnown])
		e.CountryFlag = toText(r[ColCountryFlag])
		if e.CountryFlag == "" {
			e.CountryFlag = DefaultCountryFlag
		}
	}
	return e, true
}

func toDate(v any) (string, bool) {
	switch d := v.(type) {
	case time.Time:
		return d.UTC().Format(DateLayout), true
	case string:
		s := strings.TrimSpace(d)
		// Spreadsheet exports sometimes carry a time part.
		if len(s) > len(DateLayout) {
			s = s[:len(DateLayout)]
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return "", false
		}
		return t.Format(DateLayout), true
	default:
		return "", false
	}
}

func toBool(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return truthy[strings.ToLower(strings.TrimSpace(b))]
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	case float64:
		return b != 0 && !math.IsNaN(b)
	case float32:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case int32:
		return b != 0
	default:
		return false
	}
}

func toRating(v any) int {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	r := int(math.Trunc(f))
	if r < 0 || r > maxRating {
		return 0
	}
	return r
}

func toText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		if math.IsNaN(s) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
