package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/credence/internal/cache"
)

// StaticDescriber serves captions from a fixed media key -> caption table.
// Keys match on the media base name, case-insensitively.
type StaticDescriber struct {
	captions map[string]string
}

// NewStaticDescriber builds a describer from captions
func NewStaticDescriber(captions map[string]string) *StaticDescriber {
	d := &StaticDescriber{captions: make(map[string]string, len(captions))}
	for k, v := range captions {
		d.captions[captionKey(k)] = strings.TrimSpace(v)
	}
	return d
}

// LoadStaticDescriber reads a YAML or JSON captions file
func LoadStaticDescriber(file string) (*StaticDescriber, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read captions file: %w", err)
	}
	var captions map[string]string
	if err := yaml.Unmarshal(data, &captions); err != nil {
		return nil, fmt.Errorf("parse captions file: %w", err)
	}
	return NewStaticDescriber(captions), nil
}

// Name returns the provider name
func (d *StaticDescriber) Name() string {
	return "static"
}

// Describe looks the media key up. Unknown keys report ErrUnavailable.
func (d *StaticDescriber) Describe(_ context.Context, req DescribeRequest) (*DescribeResponse, error) {
	caption, ok := d.captions[captionKey(req.MediaKey)]
	if !ok || caption == "" {
		return nil, fmt.Errorf("%w: no caption for %q", ErrUnavailable, req.MediaKey)
	}
	return &DescribeResponse{Caption: caption, Model: "static"}, nil
}

func captionKey(mediaKey string) string {
	return strings.ToLower(path.Base(strings.ReplaceAll(strings.TrimSpace(mediaKey), "\\", "/")))
}

// CachedDescriber memoizes captions of another describer, keyed by media content
type CachedDescriber struct {
	next  Describer
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedDescriber wraps next with c
func NewCachedDescriber(next Describer, c cache.Cache, ttl time.Duration) *CachedDescriber {
	return &CachedDescriber{next: next, cache: c, ttl: ttl}
}

// Name returns the wrapped provider name
func (d *CachedDescriber) Name() string {
	return d.next.Name()
}

// Describe returns a cached caption or asks the wrapped describer
func (d *CachedDescriber) Describe(ctx context.Context, req DescribeRequest) (*DescribeResponse, error) {
	sum := sha256.Sum256(req.Data)
	key := cache.CacheKey("caption", d.next.Name()+"|"+req.MediaKey+"|"+hex.EncodeToString(sum[:])+"|"+prompt(req))

	var cached DescribeResponse
	if cache.GetJSON(d.cache, key, &cached) {
		return &cached, nil
	}

	resp, err := d.next.Describe(ctx, req)
	if err != nil {
		return nil, err
	}
	_ = cache.SetJSON(d.cache, key, resp, d.ttl)
	return resp, nil
}
