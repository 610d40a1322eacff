package source

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/credence/internal/model"
)

// Entry is one reputation table row
type Entry struct {
	Score  float64 `yaml:"score" json:"score"`
	Reason string  `yaml:"reason" json:"reason"`
}

// UnmarshalYAML accepts either {score, reason} or a bare number
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var score float64
		if err := node.Decode(&score); err != nil {
			return fmt.Errorf("line %d: score must be a number: %w", node.Line, err)
		}
		e.Score = score
		return nil
	}

	type plain Entry
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = Entry(p)
	return nil
}

// Table maps domains to reputation entries. It is never mutated after construction.
type Table struct {
	entries map[string]Entry
}

// NewTable builds a table from entries. Keys are normalized and scores clamped.
func NewTable(entries map[string]Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for domain, e := range entries {
		key := strings.TrimPrefix(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), "."), "www.")
		if key == "" {
			continue
		}
		e.Score = model.Clamp(e.Score)
		t.entries[key] = e
	}
	return t
}

// LoadTable reads a JSON or YAML reputation file
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reputation table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable parses reputation data. JSON is accepted as a subset of YAML.
func ParseTable(data []byte) (*Table, error) {
	var entries map[string]Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse reputation table: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("parse reputation table: no entries")
	}
	return NewTable(entries), nil
}

// Lookup finds the most specific entry for domain. The matched key is returned with it.
func (t *Table) Lookup(domain string) (Entry, string, bool) {
	for _, key := range candidates(domain) {
		if e, ok := t.entries[key]; ok {
			return e, key, true
		}
	}
	return Entry{}, "", false
}

// Len returns the number of domains in the table
func (t *Table) Len() int {
	return len(t.entries)
}

// DefaultTable returns the built-in reputation table
func DefaultTable() *Table {
	return NewTable(map[string]Entry{
		// Wire services and papers of record
		"reuters.com":     {0.95, "Highly reputable international news agency (Reuters)."},
		"apnews.com":      {0.95, "Highly reputable international news agency (Associated Press)."},
		"afp.com":         {0.93, "Highly reputable international news agency (AFP)."},
		"bbc.co.uk":       {0.92, "Established public broadcaster with editorial standards (BBC)."},
		"bbc.com":         {0.92, "Established public broadcaster with editorial standards (BBC)."},
		"npr.org":         {0.90, "Established public broadcaster with editorial standards (NPR)."},
		"nytimes.com":     {0.88, "Major newspaper with a corrections policy."},
		"theguardian.com": {0.88, "Major newspaper with a corrections policy."},
		"wsj.com":         {0.88, "Major newspaper with a corrections policy."},
		"ft.com":          {0.88, "Major newspaper with a corrections policy."},
		"economist.com":   {0.88, "Established news magazine with editorial standards."},
		"thehindu.com":    {0.85, "Established national newspaper."},

		// Official and institutional sources
		"rbi.org.in":         {0.95, "Official central bank website (Reserve Bank of India)."},
		"federalreserve.gov": {0.95, "Official central bank website (US Federal Reserve)."},
		"who.int":            {0.93, "Official international health organization."},
		"nature.com":         {0.92, "Peer-reviewed scientific publisher."},
		"gov":                {0.85, "United States government domain."},
		"gov.uk":             {0.85, "United Kingdom government domain."},
		"gov.in":             {0.85, "Government of India domain."},
		"edu":                {0.80, "Accredited educational institution domain."},
		"ac.uk":              {0.80, "United Kingdom academic institution domain."},

		// Reference and fact-checking
		"wikipedia.org":  {0.70, "Crowd-sourced reference; verify against cited sources."},
		"snopes.com":     {0.85, "Established fact-checking outlet."},
		"politifact.com": {0.85, "Established fact-checking outlet."},
		"factcheck.org":  {0.85, "Established fact-checking outlet."},

		// Platforms and user-generated content
		"twitter.com":  {0.40, "Social media platform; content is user-generated and unverified."},
		"x.com":        {0.40, "Social media platform; content is user-generated and unverified."},
		"facebook.com": {0.40, "Social media platform; content is user-generated and unverified."},
		"tiktok.com":   {0.35, "Short-form video platform; content is user-generated and unverified."},
		"youtube.com":  {0.45, "Video platform; credibility depends entirely on the channel."},
		"medium.com":   {0.45, "Open blogging platform; no editorial review."},
		"blogspot.com": {0.30, "Free blog hosting; no editorial review."},

		// Known low-credibility outlets
		"bunkerville.com":          {0.15, "Known source of conspiracy theories and misinformation."},
		"infowars.com":             {0.10, "Known source of conspiracy theories and fabricated stories."},
		"naturalnews.com":          {0.10, "Known source of health misinformation."},
		"beforeitsnews.com":        {0.10, "User-submitted conspiracy content with no fact checking."},
		"worldnewsdailyreport.com": {0.05, "Satirical site whose stories are frequently shared as real news."},
		"theonion.com":             {0.20, "Satire publication; content is not factual reporting."},
	})
}
