package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Page represents a fetched web page with the data the harvester needs.
//
// Design decision: We keep only the anchors rather than the full DOM because
// the harvester only ever follows hyperlinks. The hash is logged with every
// listing fetch so an unchanged listing can be recognized across runs.
type Page struct {
	// URL is the URL the page was requested from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Anchors contains the resolved href of every element carrying one
	// (<a>, <link>, <area>), in document order.
	Anchors []string `json:"anchors,omitempty"`

	// Hash is the SHA3-256 hash of the raw body, hex encoded.
	Hash string `json:"hash"`
}

// ComputeHash sets Hash from the given body bytes.
// An empty body produces an empty Hash.
func (p *Page) ComputeHash(body []byte) {
	if len(body) == 0 {
		p.Hash = ""
		return
	}
	sum := sha3.Sum256(body)
	p.Hash = hex.EncodeToString(sum[:])
}

// IsHTML reports whether the page was served as HTML.
// An empty content type is treated as HTML since some servers omit it.
func (p *Page) IsHTML() bool {
	if p.ContentType == "" {
		return true
	}
	ct := strings.ToLower(p.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// AnchorsWithPrefix returns the anchors starting with prefix, deduplicated
// in first-seen order.
func (p *Page) AnchorsWithPrefix(prefix string) []string {
	seen := NewLinkSet()
	for _, a := range p.Anchors {
		if strings.HasPrefix(a, prefix) {
			seen.Add(a)
		}
	}
	return seen.Links()
}

// FirstAnchorWithSuffix returns the first anchor whose value ends in suffix.
// The comparison ignores the query string and fragment.
func (p *Page) FirstAnchorWithSuffix(suffix string) (string, bool) {
	for _, a := range p.Anchors {
		if strings.HasSuffix(stripQuery(a), suffix) {
			return a, true
		}
	}
	return "", false
}

// stripQuery removes the query string and fragment from a URL string.
func stripQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
