package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// maxSourceSize bounds a single fetched fragment.
const maxSourceSize = 1 << 20

// Fetcher retrieves shader source text by catalogue-relative path, e.g. "hash/fasthash.wgsl".
type Fetcher interface {
	// FetchText retrieves and validates the text at path.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - path: slash-separated path relative to the catalogue root
	//
	// Returns:
	//   - string: the source text
	//   - error: a *FetchError on any failure
	FetchText(ctx context.Context, path string) (string, error)
}

type fsFetcher struct {
	fsys fs.FS
}

var _ Fetcher = &fsFetcher{}

// NewFSFetcher creates a Fetcher reading from an fs.FS such as the embedded default catalogue.
//
// Parameters:
//   - fsys: the file system holding the catalogue
//
// Returns:
//   - Fetcher: the fetcher
func NewFSFetcher(fsys fs.FS) Fetcher {
	return &fsFetcher{fsys: fsys}
}

// NewDirFetcher creates a Fetcher reading from a catalogue directory on disk.
//
// Parameters:
//   - dir: the catalogue root directory
//
// Returns:
//   - Fetcher: the fetcher
func NewDirFetcher(dir string) Fetcher {
	return &fsFetcher{fsys: os.DirFS(dir)}
}

func (f *fsFetcher) FetchText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{Path: path, Err: err}
	}
	if !fs.ValidPath(path) {
		return "", &FetchError{Path: path, Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(f.fsys, path)
	if err != nil {
		return "", &FetchError{Path: path, Err: err}
	}
	return CheckText(path, data)
}

type httpFetcher struct {
	base   *url.URL
	client *http.Client
}

var _ Fetcher = &httpFetcher{}

// NewHTTPFetcher creates a Fetcher that GETs paths relative to baseURL.
//
// Parameters:
//   - baseURL: the catalogue root, e.g. "http://localhost:8080/shaders/"
//   - client: the client to use; nil uses http.DefaultClient
//
// Returns:
//   - Fetcher: the fetcher
//   - error: an error if baseURL does not parse
func NewHTTPFetcher(baseURL string, client *http.Client) (Fetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalogue url %q: %w", baseURL, err)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFetcher{base: u, client: client}, nil
}

func (f *httpFetcher) FetchText(ctx context.Context, path string) (string, error) {
	target := f.base.JoinPath(strings.Split(path, "/")...)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", &FetchError{Path: path, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Path: path, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceSize))
	if err != nil {
		return "", &FetchError{Path: path, Err: err}
	}
	return CheckText(path, data)
}

// IsURL reports whether root names an http(s) catalogue rather than a directory.
func IsURL(root string) bool {
	return strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://")
}
