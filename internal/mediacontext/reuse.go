package mediacontext

import (
	"fmt"
	"os"
	"path"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// reuseTokens in a media file name suggest the media predates the claim
var reuseTokens = map[string]bool{
	"old":      true,
	"archive":  true,
	"archived": true,
	"stock":    true,
	"reused":   true,
	"repost":   true,
	"recycled": true,
}

// ReuseIndex knows which media keys have been seen before in another context
type ReuseIndex struct {
	known map[string]string // base name -> note
}

// NewReuseIndex builds an index from known reused keys and their notes
func NewReuseIndex(known map[string]string) *ReuseIndex {
	idx := &ReuseIndex{known: make(map[string]string, len(known))}
	for k, note := range known {
		idx.known[baseName(k)] = strings.TrimSpace(note)
	}
	return idx
}

// LoadReuseIndex reads a YAML or JSON file holding either a list of media
// keys or a map of media key -> note
func LoadReuseIndex(file string) (*ReuseIndex, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read reuse index: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse reuse index: %w", err)
	}
	if len(node.Content) == 0 {
		return NewReuseIndex(nil), nil
	}

	known := make(map[string]string)
	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var keys []string
		if err := root.Decode(&keys); err != nil {
			return nil, fmt.Errorf("parse reuse index: %w", err)
		}
		for _, k := range keys {
			known[k] = ""
		}
	case yaml.MappingNode:
		if err := root.Decode(&known); err != nil {
			return nil, fmt.Errorf("parse reuse index: %w", err)
		}
	default:
		return nil, fmt.Errorf("parse reuse index: expected a list or a map")
	}

	return NewReuseIndex(known), nil
}

// Check reports whether key shows evidence of reuse, with a short explanation
func (r *ReuseIndex) Check(key string) (bool, string) {
	name := baseName(key)
	if r != nil {
		if note, ok := r.known[name]; ok {
			if note == "" {
				return true, "media is listed as previously published elsewhere"
			}
			return true, "media is listed as previously published elsewhere (" + note + ")"
		}
	}

	for _, tok := range nameTokens(name) {
		if reuseTokens[tok] {
			return true, fmt.Sprintf("media name suggests reuse (%q)", tok)
		}
	}
	return false, ""
}

func baseName(key string) string {
	key = strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return strings.ToLower(path.Base(key))
}

// nameTokens splits a file name into lowercase alphanumeric words
func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
