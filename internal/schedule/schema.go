package schedule

import "fmt"

// SchemaVersion selects the set of columns a table carries.
type SchemaVersion int

const (
	// SchemaV1 has the base columns: listened flag, rating and review.
	SchemaV1 SchemaVersion = 1
	// SchemaV2 adds the already-known flag and the country tag.
	SchemaV2 SchemaVersion = 2
)

func ParseSchemaVersion(n int) (SchemaVersion, error) {
	switch SchemaVersion(n) {
	case SchemaV1, SchemaV2:
		return SchemaVersion(n), nil
	default:
		return 0, fmt.Errorf("unsupported schema version %d", n)
	}
}

// Columns lists the columns expected for v, date first.
func Columns(v SchemaVersion) []string {
	cols := []string{ColDate, ColArtist, ColAlbum, ColGenre, ColTag, ColWatched, ColRating, ColReview}
	if v >= SchemaV2 {
		cols = append(cols, ColAlreadyKnown, ColCountryFlag)
	}
	return cols
}

// columnDefault is the value a missing column is backfilled with.
func columnDefault(col string) any {
	switch col {
	case ColWatched, ColAlreadyKnown:
		return false
	case ColRating:
		return 0
	case ColCountryFlag:
		return DefaultCountryFlag
	default:
		return ""
	}
}

// Backfill adds every column of v missing from a record with its default.
// Records are modified in place and also returned. The date column is never
// invented.
func Backfill(records []Record, v SchemaVersion) []Record {
	for _, r := range records {
		for _, col := range Columns(v) {
			if col == ColDate {
				continue
			}
			if _, ok := r[col]; !ok {
				r[col] = columnDefault(col)
			}
		}
	}
	return records
}
