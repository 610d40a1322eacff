package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/credence/internal/util"
)

var (
	ErrNotFound       = errors.New("media not found")
	ErrTooLarge       = errors.New("media exceeds size limit")
	ErrRemoteDisabled = errors.New("remote media fetching is disabled")
	ErrDisallowed     = errors.New("media fetch disallowed by robots.txt")
)

// Media is a resolved media item
type Media struct {
	Key         string
	Data        []byte
	ContentType string
	Origin      string // "file" or "http"
}

// IsImage reports whether the content is an image
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// Resolver reads media from a local directory or, when enabled, over HTTP
type Resolver struct {
	dir         string
	fetchRemote bool
	maxBytes    int64
	userAgent   string
	httpClient  *http.Client
	robots      *util.RobotsChecker
}

// Options configure a Resolver
type Options struct {
	Dir         string
	FetchRemote bool
	MaxBytes    int64
	UserAgent   string
	HTTPClient  *http.Client
	Robots      *util.RobotsChecker // nil skips robots.txt checks
}

// NewResolver creates a resolver
func NewResolver(opts Options) *Resolver {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 10_000_000
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Resolver{
		dir:         opts.Dir,
		fetchRemote: opts.FetchRemote,
		maxBytes:    opts.MaxBytes,
		userAgent:   opts.UserAgent,
		httpClient:  opts.HTTPClient,
		robots:      opts.Robots,
	}
}

// Resolve loads the media identified by key
func (r *Resolver) Resolve(ctx context.Context, key string) (*Media, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrNotFound)
	}

	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return r.fetch(ctx, key)
	}
	return r.readFile(key)
}

func (r *Resolver) readFile(key string) (*Media, error) {
	path, err := r.localPath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("stat media: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, key)
	}
	if info.Size() > r.maxBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, key, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}

	return &Media{Key: key, Data: data, ContentType: contentType(key, data, ""), Origin: "file"}, nil
}

// localPath joins key onto the media directory, refusing keys that escape it
func (r *Resolver) localPath(key string) (string, error) {
	if r.dir == "" {
		return "", fmt.Errorf("%w: no media directory configured", ErrNotFound)
	}
	if filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: absolute path %q", ErrNotFound, key)
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the media directory", ErrNotFound, key)
	}
	return filepath.Join(r.dir, clean), nil
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) (*Media, error) {
	if !r.fetchRemote {
		return nil, ErrRemoteDisabled
	}

	if r.robots != nil {
		allowed, _, err := r.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, fmt.Errorf("%w: HTTP %d from %s", ErrNotFound, resp.StatusCode, rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: HTTP %d from %s", resp.StatusCode, rawURL)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, r.maxBytes)
	}

	return &Media{
		Key:         rawURL,
		Data:        data,
		ContentType: contentType(rawURL, data, resp.Header.Get("Content-Type")),
		Origin:      "http",
	}, nil
}

// contentType sniffs data, then falls back to the declared header and the file extension
func contentType(name string, data []byte, declared string) string {
	sniffed := http.DetectContentType(data)
	if sniffed != "application/octet-stream" && !strings.HasPrefix(sniffed, "text/plain") {
		return stripParams(sniffed)
	}
	if declared != "" {
		return stripParams(declared)
	}

	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return stripParams(byExt)
	}
	return stripParams(sniffed)
}

func stripParams(ct string) string {
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		return mt
	}
	return strings.TrimSpace(strings.Split(ct, ";")[0])
}
