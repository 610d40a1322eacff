package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/credence/internal/model"
)

// Sentence length bounds for the body-text fallback
const (
	minSentence = 30
	maxSentence = 500
)

// Page holds the metadata of a fetched article page
type Page struct {
	URL         string
	OGTitle     string
	Title       string
	Heading     string // first <h1>
	Description string
	Image       string // absolute og:image / twitter:image URL
	Canonical   string
	Lead        string // first body sentence of usable length
}

// ParsePage parses htmlContent fetched from pageURL
func ParsePage(htmlContent, pageURL string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	p := &Page{URL: pageURL}
	var twitterImage string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			case "title":
				if p.Title == "" {
					p.Title = collapse(textOf(n))
				}
			case "h1":
				if p.Heading == "" {
					p.Heading = collapse(textOf(n))
				}
			case "meta":
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				content := strings.TrimSpace(attr(n, "content"))
				switch key {
				case "og:title":
					setOnce(&p.OGTitle, collapse(content))
				case "og:description", "description":
					setOnce(&p.Description, collapse(content))
				case "og:image", "og:image:url":
					setOnce(&p.Image, resolveURL(base, content))
				case "twitter:image":
					setOnce(&twitterImage, resolveURL(base, content))
				}
			case "link":
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					setOnce(&p.Canonical, resolveURL(base, attr(n, "href")))
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if p.Image == "" {
		p.Image = twitterImage
	}
	if body := findBody(doc); body != nil {
		if s := splitSentences(extractVisibleText(body)); len(s) > 0 {
			p.Lead = s[0]
		}
	}

	return p, nil
}

// Headline returns the best claim text the page offers:
// og:title, then <title>, then the first <h1>, then the lead sentence
func (p *Page) Headline() string {
	for _, s := range []string{p.OGTitle, p.Title, p.Heading, p.Lead} {
		if s != "" {
			return s
		}
	}
	return ""
}

// ApplyTo fills the claim's empty text and media key from the page.
// Fields already set on the claim are kept.
func (p *Page) ApplyTo(claim model.Claim) model.Claim {
	if strings.TrimSpace(claim.Text) == "" {
		claim.Text = p.Headline()
	}
	if !claim.HasMedia() && p.Image != "" {
		claim.MediaKey = p.Image
	}
	return claim
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setOnce(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func textOf(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// extractVisibleText extracts text nodes from HTML, skipping scripts and navigation chrome
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "nav", "header", "footer", "h1":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// splitSentences splits text into sentences of usable length
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= minSentence && len(sentence) <= maxSentence {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		// Only split when whitespace follows, so decimals like "3.5" stay intact
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				keep()
			}
		}
	}

	if current.Len() > 0 {
		keep()
	}

	return sentences
}

// resolveURL resolves href against base, keeping only http(s) results
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "data:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}
