package model

import "strings"

// NoMedia is the placeholder media key used when a claim has no associated image or video
const NoMedia = "none"

// Claim is a single assertion submitted for credibility analysis
type Claim struct {
	Text      string `json:"text"`                // The claim text itself (headline or excerpt)
	SourceURL string `json:"source_url"`          // Where the claim was published
	MediaKey  string `json:"media_key,omitempty"` // Identifier of the associated image/video
}

// HasMedia reports whether the claim references real media rather than a placeholder
func (c Claim) HasMedia() bool {
	key := strings.TrimSpace(c.MediaKey)
	return key != "" && !strings.EqualFold(key, NoMedia)
}
