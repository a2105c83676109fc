package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCatalogue(t *testing.T) {
	c, err := ReadCatalogue(context.Background(), NewFSFetcher(testFS()))
	require.NoError(t, err)

	want := Catalogue{Hashes: []string{"fasthash", "pcg_11"}, Noises: []string{"value_21"}}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("catalogue mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, c.HasHash("pcg_11"))
	assert.False(t, c.HasHash("value_21"))
	assert.True(t, c.HasNoise("value_21"))
}

func TestReadCatalogueMissingList(t *testing.T) {
	fsys := testFS()
	delete(fsys, NoiseListPath)
	_, err := ReadCatalogue(context.Background(), NewFSFetcher(fsys))
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, NoiseListPath, fe.Path)
}

func TestCycle(t *testing.T) {
	names := []string{"a", "b", "c"}
	tests := []struct {
		current string
		step    int
		want    string
	}{
		{"a", 1, "b"},
		{"c", 1, "a"},
		{"a", -1, "c"},
		{"b", 4, "c"},
		{"unknown", 1, "a"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cycle(names, tt.current, tt.step), "%s%+d", tt.current, tt.step)
	}
	assert.Equal(t, "", Cycle(nil, "a", 1))
}

func TestWriteCatalogue(t *testing.T) {
	dir := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	}
	write("hash/pcg_11.wgsl")
	write("hash/fasthash.wgsl")
	write("hash/README.md")
	write("noise/2d/value_21.wgsl")
	write("noise/2d/perlin_21.wgsl")

	c, err := WriteCatalogue(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"fasthash", "pcg_11"}, c.Hashes)
	assert.Equal(t, []string{"perlin_21", "value_21"}, c.Noises)

	data, err := os.ReadFile(filepath.Join(dir, HashListPath))
	require.NoError(t, err)
	assert.Equal(t, "fasthash\npcg_11", string(data))

	read, err := ReadCatalogue(context.Background(), NewDirFetcher(dir))
	require.NoError(t, err)
	assert.Equal(t, c, read)
}

func TestWriteCatalogueMissingDir(t *testing.T) {
	_, err := WriteCatalogue(t.TempDir())
	assert.Error(t, err)
}
