package pastebin

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// RawPrefix is the path prefix of the raw paste endpoint
	RawPrefix = "/raw"

	// FirstPaginatedPage is the first listing page reached by URL suffix.
	// Page 1 is the bare author URL.
	FirstPaginatedPage = 2
)

// ListingPageURL constructs the URL of page n of an author listing
func ListingPageURL(listingURL string, page int) string {
	return fmt.Sprintf("%s/%d", strings.TrimRight(listingURL, "/"), page)
}

// PasteURL constructs the display page URL of a paste
func PasteURL(baseURL, refPath string) string {
	return strings.TrimRight(baseURL, "/") + ensureLeadingSlash(refPath)
}

// RawURL constructs the raw content URL of a paste
func RawURL(baseURL, refPath string) string {
	return strings.TrimRight(baseURL, "/") + RawPrefix + ensureLeadingSlash(refPath)
}

// AuthorURL resolves an author link found on a paste page against the site
func AuthorURL(baseURL, href string) string {
	if u, err := url.Parse(href); err == nil && u.IsAbs() {
		return href
	}
	return strings.TrimRight(baseURL, "/") + ensureLeadingSlash(href)
}

// RobotsURL returns the robots.txt location for the host serving pageURL
func RobotsURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("not an absolute URL: %q", pageURL)
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", nil
}

// normalizeRef reduces a listing href to a site-relative path without
// fragment or query
func normalizeRef(href string) string {
	href = strings.TrimSpace(href)
	if u, err := url.Parse(href); err == nil {
		if u.IsAbs() || u.Host != "" {
			return ensureLeadingSlash(u.Path)
		}
		href = u.Path
	}
	return ensureLeadingSlash(href)
}

func ensureLeadingSlash(p string) string {
	if strings.HasPrefix(p, "/") {
		return p
	}
	return "/" + p
}
