package pastebin

import (
	"context"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsChecker answers whether the site's robots.txt permits a URL.
// Results are cached per robots.txt location for the lifetime of the checker.
type RobotsChecker struct {
	client    *Client
	userAgent string
	cache     map[string]*robotstxt.RobotsData
	mu        sync.Mutex
}

// NewRobotsChecker creates a checker that fetches robots.txt through client
func NewRobotsChecker(client *Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		cache:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether pageURL may be crawled. An unreachable robots.txt
// is treated as allowing everything.
func (rc *RobotsChecker) Allowed(ctx context.Context, pageURL string) (bool, error) {
	robotsURL, err := RobotsURL(pageURL)
	if err != nil {
		return false, err
	}

	data, err := rc.load(ctx, robotsURL)
	if err != nil {
		rc.client.logger.WarnWithFields("robots.txt unavailable, assuming allowed", map[string]interface{}{
			"url":   robotsURL,
			"error": err.Error(),
		})
		return true, nil
	}

	u, err := url.Parse(pageURL)
	if err != nil {
		return false, err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, rc.userAgent), nil
}

func (rc *RobotsChecker) load(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	rc.mu.Lock()
	cached, ok := rc.cache[robotsURL]
	rc.mu.Unlock()
	if ok {
		return cached, nil
	}

	page, err := rc.client.Get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}

	data, err := robotstxt.FromStatusAndString(page.StatusCode, page.Body)
	if err != nil {
		return nil, err
	}

	rc.mu.Lock()
	rc.cache[robotsURL] = data
	rc.mu.Unlock()

	return data, nil
}
