package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/credence/internal/cache"
)

// ThreatChecker reports the threat categories a URL is listed under.
// An empty result means the URL is not listed.
type ThreatChecker interface {
	CheckThreat(ctx context.Context, rawURL string) ([]string, error)
}

// NoopThreatChecker never reports a threat
type NoopThreatChecker struct{}

// CheckThreat always returns no categories
func (NoopThreatChecker) CheckThreat(context.Context, string) ([]string, error) {
	return nil, nil
}

// StaticThreatList matches URLs against a fixed domain blocklist
type StaticThreatList struct {
	domains map[string][]string
}

// NewStaticThreatList builds a blocklist from domain -> categories
func NewStaticThreatList(domains map[string][]string) *StaticThreatList {
	l := &StaticThreatList{domains: make(map[string][]string, len(domains))}
	for d, cats := range domains {
		key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(d)), "www.")
		if key == "" {
			continue
		}
		if len(cats) == 0 {
			cats = []string{"LISTED"}
		}
		l.domains[key] = append([]string(nil), cats...)
	}
	return l
}

// LoadStaticThreatList reads a blocklist file. Each non-comment line holds a
// domain optionally followed by comma-separated categories:
//
//	badsite.example MALWARE,SOCIAL_ENGINEERING
func LoadStaticThreatList(path string) (*StaticThreatList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer func() { _ = f.Close() }()

	domains := make(map[string][]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var cats []string
		if len(fields) > 1 {
			for _, c := range strings.Split(fields[1], ",") {
				if c = strings.TrimSpace(c); c != "" {
					cats = append(cats, strings.ToUpper(c))
				}
			}
		}
		domains[fields[0]] = cats
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}

	return NewStaticThreatList(domains), nil
}

// CheckThreat returns the categories of the most specific listed domain
func (l *StaticThreatList) CheckThreat(_ context.Context, rawURL string) ([]string, error) {
	domain, err := NormalizeDomain(rawURL)
	if err != nil {
		return nil, err
	}
	for _, key := range candidates(domain) {
		if cats, ok := l.domains[key]; ok {
			return append([]string(nil), cats...), nil
		}
	}
	return nil, nil
}

// SafeBrowsingClient queries the Google Safe Browsing v4 Lookup API
type SafeBrowsingClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Safe Browsing API structures
type sbRequest struct {
	Client     sbClient     `json:"client"`
	ThreatInfo sbThreatInfo `json:"threatInfo"`
}

type sbClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type sbThreatInfo struct {
	ThreatTypes      []string        `json:"threatTypes"`
	PlatformTypes    []string        `json:"platformTypes"`
	ThreatEntryTypes []string        `json:"threatEntryTypes"`
	ThreatEntries    []sbThreatEntry `json:"threatEntries"`
}

type sbThreatEntry struct {
	URL string `json:"url"`
}

type sbResponse struct {
	Matches []struct {
		ThreatType string `json:"threatType"`
	} `json:"matches"`
}

var sbThreatTypes = []string{
	"MALWARE",
	"SOCIAL_ENGINEERING",
	"UNWANTED_SOFTWARE",
	"POTENTIALLY_HARMFUL_APPLICATION",
}

// ErrNoAPIKey is returned when a Safe Browsing client is built without a key
var ErrNoAPIKey = errors.New("safe browsing API key is required")

// NewSafeBrowsingClient creates a Safe Browsing client
func NewSafeBrowsingClient(apiKey, baseURL string, httpClient *http.Client) (*SafeBrowsingClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if baseURL == "" {
		baseURL = "https://safebrowsing.googleapis.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &SafeBrowsingClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// CheckThreat asks the Lookup API whether rawURL is listed
func (c *SafeBrowsingClient) CheckThreat(ctx context.Context, rawURL string) ([]string, error) {
	body, err := json.Marshal(sbRequest{
		Client: sbClient{ClientID: "credence", ClientVersion: "0.1"},
		ThreatInfo: sbThreatInfo{
			ThreatTypes:      sbThreatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []sbThreatEntry{{URL: rawURL}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/threatMatches:find?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed sbResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	seen := make(map[string]bool)
	var cats []string
	for _, m := range parsed.Matches {
		if m.ThreatType != "" && !seen[m.ThreatType] {
			seen[m.ThreatType] = true
			cats = append(cats, m.ThreatType)
		}
	}
	sort.Strings(cats)
	return cats, nil
}

// CachedThreatChecker memoizes another checker's answers. Errors are not cached.
type CachedThreatChecker struct {
	next  ThreatChecker
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedThreatChecker wraps next with c
func NewCachedThreatChecker(next ThreatChecker, c cache.Cache, ttl time.Duration) *CachedThreatChecker {
	return &CachedThreatChecker{next: next, cache: c, ttl: ttl}
}

// CheckThreat returns a cached answer or consults the wrapped checker
func (c *CachedThreatChecker) CheckThreat(ctx context.Context, rawURL string) ([]string, error) {
	key := cache.CacheKey("threat", rawURL)

	var cats []string
	if cache.GetJSON(c.cache, key, &cats) {
		return cats, nil
	}

	cats, err := c.next.CheckThreat(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []string{}
	}
	_ = cache.SetJSON(c.cache, key, cats, c.ttl)
	return cats, nil
}
