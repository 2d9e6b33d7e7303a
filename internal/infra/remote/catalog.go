package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"civil-quiz/internal/domain"
)

// ManifestFile is the manifest name relative to the catalog base URL.
const ManifestFile = "list.json"

// ErrOutsideCatalog is returned for references that do not resolve below
// the catalog base URL.
var ErrOutsideCatalog = errors.New("reference outside catalog")

// Catalog reads list.json and question sets over HTTP(S) or file://.
// Relative question-set references resolve against the base URL.
type Catalog struct {
	http *http.Client
	base *url.URL
}

// NewCatalog reads from baseURL. A file:// base gets its own client whose
// file transport is rooted at that directory, so nothing outside it can be
// read.
func NewCatalog(client *http.Client, baseURL string) (*Catalog, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	if base.Scheme == "file" {
		transport := &http.Transport{}
		transport.RegisterProtocol("file", http.NewFileTransport(http.Dir(filepath.FromSlash(base.Path))))
		client = &http.Client{Transport: transport, Timeout: client.Timeout}
		base = &url.URL{Scheme: "file", Path: "/"}
	}
	return &Catalog{http: client, base: base}, nil
}

func (c *Catalog) Manifest(ctx context.Context) ([]domain.ManifestEntry, error) {
	var entries []domain.ManifestEntry
	if err := c.getJSON(ctx, ManifestFile, &entries); err != nil {
		return nil, &domain.CatalogError{Err: err}
	}
	return entries, nil
}

func (c *Catalog) Questions(ctx context.Context, file string) ([]domain.Question, error) {
	var set []domain.Question
	if err := c.getJSON(ctx, file, &set); err != nil {
		if errors.Is(err, ErrOutsideCatalog) {
			return nil, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, file)
		}
		return nil, &domain.NetworkError{Op: "load " + file, Err: err}
	}
	return set, nil
}

// Resolve returns the absolute URL of a relative catalog reference.
// Absolute URLs and paths escaping the base are ErrOutsideCatalog.
func (c *Catalog) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || u.Host != "" {
		return "", fmt.Errorf("%w: %s", ErrOutsideCatalog, ref)
	}
	if rel := path.Clean(u.Path); rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideCatalog, ref)
	}
	target := c.base.ResolveReference(u)
	if !strings.HasPrefix(target.Path, c.base.Path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideCatalog, ref)
	}
	return target.String(), nil
}

func (c *Catalog) getJSON(ctx context.Context, ref string, out any) error {
	target, err := c.Resolve(ref)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("GET %s: HTTP %d", target, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}
