// Package testsite serves a small pastebin-like site over httptest for
// exercising the crawler end to end.
package testsite

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Paste is one paste hosted by the site
type Paste struct {
	ID       string
	Title    string
	Author   string // empty renders a guest paste without an author link
	LastEdit string
	Body     string
}

// Site simulates listing pages, paste pages and raw endpoints
type Site struct {
	server         *httptest.Server
	mu             sync.RWMutex
	pastes         map[string]Paste
	listings       map[string][][]string
	errorResponses map[string]int
	hits           map[string]int
	robots         string
	requestCount   int32
}

// New starts a site with no content
func New() *Site {
	s := &Site{
		pastes:         make(map[string]Paste),
		listings:       make(map[string][][]string),
		errorResponses: make(map[string]int),
		hits:           make(map[string]int),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the site root
func (s *Site) URL() string {
	return s.server.URL
}

// AuthorURL returns the listing URL of an author
func (s *Site) AuthorURL(author string) string {
	return s.server.URL + "/u/" + author
}

// Close shuts the server down
func (s *Site) Close() {
	s.server.Close()
}

// AddPaste makes a paste available on its display and raw endpoints
func (s *Site) AddPaste(p Paste) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pastes[p.ID] = p
}

// SetListing sets an author's listing pages. pages[0] is served at the bare
// author URL, pages[i] at "/u/<author>/<i+1>". Pages past the end render the
// notice marker. A pagination block is rendered when there is more than one
// page. An empty id renders a row without a link.
func (s *Site) SetListing(author string, pages ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[author] = pages
}

// SetErrorResponse makes path answer with the given status code
func (s *Site) SetErrorResponse(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errorResponses[path] = code
}

// ClearErrorResponse removes a configured error for path
func (s *Site) ClearErrorResponse(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.errorResponses, path)
}

// SetRobots sets the body served at /robots.txt. Empty means 404.
func (s *Site) SetRobots(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.robots = body
}

// Hits returns how many times path was requested
func (s *Site) Hits(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits[path]
}

// RequestCount returns the total number of requests served
func (s *Site) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

func (s *Site) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)

	s.mu.Lock()
	s.hits[r.URL.Path]++
	code := s.errorResponses[r.URL.Path]
	s.mu.Unlock()

	if code > 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	path := r.URL.Path
	switch {
	case path == "/robots.txt":
		if s.robots == "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, s.robots)
	case strings.HasPrefix(path, "/u/"):
		s.serveListing(w, r, strings.Split(strings.TrimPrefix(path, "/u/"), "/"))
	case strings.HasPrefix(path, "/raw/"):
		p, ok := s.pastes[strings.TrimPrefix(path, "/raw/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, p.Body)
	default:
		p, ok := s.pastes[strings.TrimPrefix(path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, renderPaste(p))
	}
}

func (s *Site) serveListing(w http.ResponseWriter, r *http.Request, parts []string) {
	pages, ok := s.listings[parts[0]]
	if !ok {
		http.NotFound(w, r)
		return
	}

	page := 1
	if len(parts) > 1 && parts[1] != "" {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n < 1 {
			http.NotFound(w, r)
			return
		}
		page = n
	}

	if page > len(pages) {
		fmt.Fprint(w, `<html><body><div id="notice">No pastes found.</div></body></html>`)
		return
	}

	fmt.Fprint(w, s.renderListing(pages[page-1], len(pages) > 1))
}

func (s *Site) renderListing(ids []string, paginated bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><table class="maintable"><tr><th>Name / Title</th><th>Added</th></tr>`)
	for _, id := range ids {
		if id == "" {
			b.WriteString(`<tr><td>removed</td><td>-</td></tr>`)
			continue
		}
		title := id
		if p, ok := s.pastes[id]; ok && p.Title != "" {
			title = p.Title
		}
		fmt.Fprintf(&b, `<tr><td><a href="/%s">%s</a></td><td>Jan 1st, 2024</td></tr>`, id, html.EscapeString(title))
	}
	b.WriteString(`</table>`)
	if paginated {
		b.WriteString(`<div class="pagination"><a href="#">next</a></div>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func renderPaste(p Paste) string {
	var info string
	if p.Author != "" {
		info = fmt.Sprintf(`<a href="/u/%s">%s</a> <span title="Last edit on: %s">Jan 1st, 2024</span>`,
			p.Author, html.EscapeString(p.Author), html.EscapeString(p.LastEdit))
	} else {
		info = fmt.Sprintf(`a guest <span>%s</span>`, html.EscapeString(p.LastEdit))
	}

	return fmt.Sprintf(`<html><body>
<div class="paste_box_line1"><h1>%s</h1></div>
<div class="paste_box_line2">%s</div>
<textarea>%s</textarea>
</body></html>`, html.EscapeString(p.Title), info, html.EscapeString(p.Body))
}
