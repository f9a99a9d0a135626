package seedlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	groups, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, groups)

	b := Build(groups)
	assert.GreaterOrEqual(t, b.Len(), 300)
	for _, a := range b.Albums() {
		assert.NotEmpty(t, a.Artist)
		assert.NotEmpty(t, a.Album)
		assert.NotEmpty(t, a.Tag)
	}
}

func TestLoad_FileWithDefaultsAndDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.toml")
	doc := `
[[groups]]
artist = "Aya Nakamura"
genre = "Pop FR"
albums = ["Nakamura", "DNK", "Nakamura"]

[[groups]]
artist = "Aya Nakamura"
genre = "Pop FR"
tag = "Legend"
albums = ["DNK", "Journal intime", " "]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	groups, err := Load(path)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, DefaultTag, groups[0].Tag)
	assert.Equal(t, "Legend", groups[1].Tag)

	b := Build(groups)
	require.Equal(t, 3, b.Len())
	albums := b.Albums()
	assert.Equal(t, "Nakamura", albums[0].Album)
	assert.Equal(t, "DNK", albums[1].Album)
	assert.Equal(t, DefaultTag, albums[1].Tag, "first occurrence keeps its tag")
	assert.Equal(t, "Journal intime", albums[2].Album)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.toml")
	require.NoError(t, os.WriteFile(empty, []byte("title = \"nothing\"\n"), 0o644))
	_, err = Load(empty)
	assert.Error(t, err)

	noArtist := filepath.Join(t.TempDir(), "noartist.toml")
	require.NoError(t, os.WriteFile(noArtist, []byte("[[groups]]\nalbums = [\"x\"]\n"), 0o644))
	_, err = Load(noArtist)
	assert.Error(t, err)
}
