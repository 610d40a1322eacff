package lexicon

import (
	"strings"
	"unicode"
)

// alarmist words typical of sensational headlines
var alarmist = map[string]bool{
	"shocking": true, "shock": true, "secret": true, "secrets": true,
	"exposed": true, "expose": true, "cover-up": true, "coverup": true,
	"truth": true, "must": true, "urgent": true, "breaking": true,
	"banned": true, "hoax": true, "conspiracy": true, "miracle": true,
	"unbelievable": true, "bombshell": true, "leaked": true, "censored": true,
	"hidden": true, "revealed": true, "destroyed": true, "insane": true,
	"mind-blowing": true, "outrageous": true, "scandal": true, "warning": true,
}

// emotive words carrying strong polarity, positive or negative
var emotive = map[string]bool{
	"lying": true, "liars": true, "lies": true, "evil": true, "hate": true,
	"disgusting": true, "terrifying": true, "horrifying": true, "outrage": true,
	"furious": true, "disaster": true, "catastrophe": true, "panic": true,
	"fear": true, "crisis": true, "deadly": true, "killing": true,
	"corrupt": true, "betrayal": true, "amazing": true, "incredible": true,
	"greatest": true, "worst": true, "love": true, "awful": true,
	"horrible": true, "tragic": true, "devastating": true, "nightmare": true,
}

// contextual terms compared against a neutral media description
var contextual = map[string]bool{
	"shocking": true, "cover-up": true, "secret": true,
	"exposed": true, "truth": true, "must": true,
}

// Tokens lowercases text and splits it into words, trimming surrounding punctuation.
// Inner hyphens and apostrophes are kept ("cover-up").
func Tokens(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(strings.ToLower(f), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// RawWords splits text into words with surrounding punctuation trimmed, preserving case
func RawWords(text string) []string {
	fields := strings.Fields(text)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// IsAlarmist reports whether a lowercased token is an alarmist keyword
func IsAlarmist(token string) bool { return alarmist[token] }

// IsEmotive reports whether a lowercased token carries strong emotional polarity
func IsEmotive(token string) bool { return emotive[token] }

// IsContextual reports whether a token is a sensational assertion that a neutral
// media description would be expected to support
func IsContextual(token string) bool { return contextual[token] }

// ContextualTerms returns the distinct contextual terms present in text, in order of appearance
func ContextualTerms(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokens(text) {
		if contextual[tok] && !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	return out
}
