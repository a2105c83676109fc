package loader

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// HashListPath is the catalogue index of hash fragment names.
	HashListPath = "hash_list.txt"

	// NoiseListPath is the catalogue index of noise fragment names.
	NoiseListPath = "noise_list.txt"
)

// Catalogue lists the fragment names available to the viewer.
type Catalogue struct {
	Hashes []string
	Noises []string
}

// HashPath returns the catalogue-relative path of a hash fragment.
func HashPath(name string) string {
	return path.Join(HashDir, name+FragmentExt)
}

// NoisePath returns the catalogue-relative path of a noise fragment.
func NoisePath(name string) string {
	return path.Join(NoiseDir, name+FragmentExt)
}

// ReadCatalogue fetches both list files concurrently.
//
// Parameters:
//   - ctx: cancels both fetches
//   - f: the fetcher serving the catalogue
//
// Returns:
//   - Catalogue: the parsed names
//   - error: the first fetch error
func ReadCatalogue(ctx context.Context, f Fetcher) (Catalogue, error) {
	var c Catalogue
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := f.FetchText(gctx, HashListPath)
		if err != nil {
			return err
		}
		c.Hashes = ParseList(text)
		return nil
	})
	g.Go(func() error {
		text, err := f.FetchText(gctx, NoiseListPath)
		if err != nil {
			return err
		}
		c.Noises = ParseList(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Catalogue{}, err
	}
	return c, nil
}

// ParseList splits a list file into names. Blank lines and lines starting with # are skipped.
func ParseList(text string) []string {
	var names []string
	for line := range strings.SplitSeq(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	return names
}

// HasHash reports whether name is a listed hash fragment.
func (c Catalogue) HasHash(name string) bool {
	return slices.Contains(c.Hashes, name)
}

// HasNoise reports whether name is a listed noise fragment.
func (c Catalogue) HasNoise(name string) bool {
	return slices.Contains(c.Noises, name)
}

// Empty reports whether the catalogue lists nothing.
func (c Catalogue) Empty() bool {
	return len(c.Hashes) == 0 && len(c.Noises) == 0
}

// Cycle returns the name step positions after current in names, wrapping around. An unknown
// current starts from the first name. Returns "" for an empty list.
//
// Parameters:
//   - names: the list to cycle through
//   - current: the current name
//   - step: positions to move, negative to go back
//
// Returns:
//   - string: the selected name
func Cycle(names []string, current string, step int) string {
	if len(names) == 0 {
		return ""
	}
	i := slices.Index(names, current)
	if i < 0 {
		return names[0]
	}
	n := len(names)
	return names[((i+step)%n+n)%n]
}

// WriteCatalogue scans a catalogue directory and rewrites both list files from the .wgsl
// files found under hash/ and noise/2d/, sorted by name.
//
// Parameters:
//   - dir: the catalogue root directory
//
// Returns:
//   - Catalogue: the names written
//   - error: an error if a directory cannot be read or a list cannot be written
func WriteCatalogue(dir string) (Catalogue, error) {
	hashes, err := scanFragments(filepath.Join(dir, filepath.FromSlash(HashDir)))
	if err != nil {
		return Catalogue{}, err
	}
	noises, err := scanFragments(filepath.Join(dir, filepath.FromSlash(NoiseDir)))
	if err != nil {
		return Catalogue{}, err
	}

	if err := os.WriteFile(filepath.Join(dir, HashListPath), []byte(strings.Join(hashes, "\n")), 0644); err != nil {
		return Catalogue{}, fmt.Errorf("write %s: %w", HashListPath, err)
	}
	if err := os.WriteFile(filepath.Join(dir, NoiseListPath), []byte(strings.Join(noises, "\n")), 0644); err != nil {
		return Catalogue{}, fmt.Errorf("write %s: %w", NoiseListPath, err)
	}
	return Catalogue{Hashes: hashes, Noises: noises}, nil
}

func scanFragments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if stem, ok := strings.CutSuffix(e.Name(), FragmentExt); ok && stem != "" {
			names = append(names, stem)
		}
	}
	slices.Sort(names)
	return names, nil
}
