package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// seedRow is the on-disk shape of one seed artifact value. The rating is
// written as null until the album has been rated.
type seedRow struct {
	Artist       string  `json:"artiste"`
	Album        string  `json:"album"`
	Genre        string  `json:"genre"`
	Tag          string  `json:"tag"`
	Watched      bool    `json:"ecoute"`
	Rating       *int    `json:"note"`
	Review       string  `json:"avis"`
	AlreadyKnown *bool   `json:"deja_connu,omitempty"`
	CountryFlag  *string `json:"drapeau,omitempty"`
}

// ReadSeedFile reads a seed artifact: a JSON object keyed by ISO date.
// Each returned record carries its key in the date column, in date order.
func ReadSeedFile(path string) ([]Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw map[string]Record
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	dates := make([]string, 0, len(raw))
	for d := range raw {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	out := make([]Record, 0, len(raw))
	for _, d := range dates {
		r := raw[d]
		if r == nil {
			r = Record{}
		}
		r[ColDate] = d
		out = append(out, r)
	}
	return out, nil
}

// WriteSeedFile writes the table as a seed artifact for schema v. The file
// is replaced atomically.
func WriteSeedFile(path string, t *Table, v SchemaVersion) error {
	rows := make(map[string]seedRow, t.Len())
	for _, e := range t.Entries() {
		row := seedRow{
			Artist:  e.Artist,
			Album:   e.Album,
			Genre:   e.Genre,
			Tag:     e.Tag,
			Watched: e.Watched,
			Review:  e.Review,
		}
		if e.Rating > 0 {
			rating := e.Rating
			row.Rating = &rating
		}
		if v >= SchemaV2 {
			known := e.AlreadyKnown
			flag := e.CountryFlag
			if flag == "" {
				flag = DefaultCountryFlag
			}
			row.AlreadyKnown, row.CountryFlag = &known, &flag
		}
		rows[e.Date] = row
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode seed file: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp seed file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod seed file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write seed file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close seed file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace seed file: %w", err)
	}
	return nil
}
