package models

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Unknown is used for metadata that could not be read from a paste page
const Unknown = "Unknown"

// BodySeparator sits between the metadata header and the raw paste body
const BodySeparator = "\n\n\n\n\n"

// PasteReference is one row of an author's listing
type PasteReference struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

// ID returns the paste identifier without slashes, e.g. "abc123" for "/abc123"
func (r PasteReference) ID() string {
	return strings.Trim(r.Path, "/")
}

// PasteRecord is a fully retrieved paste
type PasteRecord struct {
	Reference   PasteReference `json:"reference"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	AuthorURL   string         `json:"author_url"`
	PasteURL    string         `json:"paste_url"`
	RawURL      string         `json:"raw_url"`
	LastEdit    string         `json:"last_edit"`
	RetrievedAt time.Time      `json:"retrieved_at"`
	Body        string         `json:"-"`
	Partial     bool           `json:"partial"`
}

// Header renders the metadata block written above the paste body
func (p *PasteRecord) Header() string {
	return fmt.Sprintf("\"%s\"\nBy: %s\n%s\n%s\n\nLast Edit: %s\nRetrieved: %s",
		p.Title,
		p.Author,
		p.AuthorURL,
		p.RawURL,
		p.LastEdit,
		p.RetrievedAt.UTC().Format(http.TimeFormat),
	)
}

// CrawlTarget is an author listing URL to crawl
type CrawlTarget struct {
	URL string `json:"url"`
}

// BaseURL returns the target URL without a trailing slash, suitable for
// appending "/<page>"
func (t CrawlTarget) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(t.URL), "/")
}

// AuthorSlug returns the last non-empty path segment of the target URL
func (t CrawlTarget) AuthorSlug() string {
	raw := t.BaseURL()
	path := raw
	if u, err := url.Parse(raw); err == nil {
		path = u.Path
	}

	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" {
			continue
		}
		if seg == "." || seg == ".." {
			break
		}
		return seg
	}
	return "unknown"
}
