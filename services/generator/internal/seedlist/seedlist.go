// Package seedlist loads the curated artist and album lists the schedule is
// generated from.
package seedlist

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/example/music-odyssey/services/generator/internal/catalog"
)

// DefaultTag is applied to groups that do not name a tag.
const DefaultTag = "Discovery"

//go:embed default.toml
var defaultList []byte

// Group is one artist with the albums to schedule.
type Group struct {
	Artist string   `koanf:"artist"`
	Genre  string   `koanf:"genre"`
	Tag    string   `koanf:"tag"`
	Albums []string `koanf:"albums"`
}

type document struct {
	Groups []Group `koanf:"groups"`
}

// Load reads the list at path, or the embedded default list when path is
// empty.
func Load(path string) ([]Group, error) {
	k := koanf.New(".")
	var err error
	if strings.TrimSpace(path) == "" {
		err = k.Load(rawbytes.Provider(defaultList), toml.Parser())
	} else {
		err = k.Load(file.Provider(path), toml.Parser())
	}
	if err != nil {
		return nil, fmt.Errorf("load seed list: %w", err)
	}

	var doc document
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("decode seed list: %w", err)
	}
	if len(doc.Groups) == 0 {
		return nil, errors.New("seed list has no groups")
	}
	for i, g := range doc.Groups {
		if strings.TrimSpace(g.Artist) == "" {
			return nil, fmt.Errorf("seed list group %d has no artist", i+1)
		}
		if strings.TrimSpace(g.Tag) == "" {
			doc.Groups[i].Tag = DefaultTag
		}
	}
	return doc.Groups, nil
}

// Build adds every album of every group to a new catalog builder, in list
// order. Repeated (artist, album) pairs are skipped by the builder.
func Build(groups []Group) *catalog.Builder {
	b := catalog.NewBuilder()
	for _, g := range groups {
		for _, album := range g.Albums {
			album = strings.TrimSpace(album)
			if album == "" {
				continue
			}
			b.Add(g.Artist, album, g.Genre, g.Tag)
		}
	}
	return b
}
