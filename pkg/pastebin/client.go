package pastebin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pastescraper/pkg/config"
	"pastescraper/pkg/errors"
	"pastescraper/pkg/logger"
	"pastescraper/pkg/models"
	"pastescraper/pkg/ratelimit"
)

// Page is a fetched HTTP document. Non-2xx responses are still returned as
// pages so callers can inspect the body.
type Page struct {
	URL        string
	StatusCode int
	Body       string
}

// Err returns a typed error for a non-2xx status, or nil
func (p *Page) Err() error {
	if e := errors.FromStatus(p.StatusCode, p.URL); e != nil {
		return e
	}
	return nil
}

// Client fetches listing pages and pastes from a paste site
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	selectors  config.SelectorsConfig
	limiter    ratelimit.Limiter
	logger     logger.Logger
	now        func() time.Time
}

// NewClient creates a client for the site described by cfg
func NewClient(cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
		},
		headers: map[string]string{
			"User-Agent":      cfg.Site.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Cache-Control":   "no-cache",
		},
		baseURL:   cfg.Site.BaseURL,
		selectors: cfg.Site.Selectors,
		limiter:   ratelimit.PerMinute(cfg.HTTP.RequestsPerMinute),
		logger:    log,
		now:       time.Now,
	}
}

// SetClock replaces the clock used to stamp retrieval times
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// Get performs a single GET request. It returns an error only when no
// response could be read; HTTP error statuses come back as a Page.
func (c *Client) Get(ctx context.Context, url string) (*Page, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "rate limiter wait aborted")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     url,
			Err:     err,
		}
	}
	for key, value := range c.headers {
		if value != "" {
			req.Header.Set(key, value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			URL:     url,
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			URL:     url,
			Err:     err,
		}
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, time.Since(start))

	return &Page{URL: url, StatusCode: resp.StatusCode, Body: string(body)}, nil
}

// GetOK is Get with non-2xx statuses turned into errors
func (c *Client) GetOK(ctx context.Context, url string) (string, error) {
	page, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	if err := page.Err(); err != nil {
		return "", err
	}
	return page.Body, nil
}

// FetchListing fetches and parses one author listing page. The parsed page is
// returned alongside a status error so a notice on an error page is still seen.
func (c *Client) FetchListing(ctx context.Context, url string) (ListingPage, error) {
	page, err := c.Get(ctx, url)
	if err != nil {
		return ListingPage{}, err
	}
	return ParseListingPage(page.Body, c.selectors), page.Err()
}

// FetchPaste retrieves a paste's metadata and raw body.
//
// The display page and the raw endpoint fail independently. If only the
// display page fails the record is returned with Partial set, the reference
// id as its title and unknown metadata. If the raw body cannot be fetched the
// paste fails and no record is returned.
func (c *Client) FetchPaste(ctx context.Context, ref models.PasteReference) (*models.PasteRecord, error) {
	pasteURL := PasteURL(c.baseURL, ref.Path)
	rawURL := RawURL(c.baseURL, ref.Path)

	meta, displayErr := c.fetchMeta(ctx, pasteURL)
	if displayErr != nil {
		c.logger.WarnWithFields("Paste page unavailable, metadata will be incomplete", map[string]interface{}{
			"reference": ref.Path,
			"url":       pasteURL,
			"error":     displayErr.Error(),
		})
	}

	body, err := c.GetOK(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching raw paste %s: %w", ref.Path, err)
	}

	title := meta.Title
	if title == "" {
		title = ref.ID()
	}

	return &models.PasteRecord{
		Reference:   ref,
		Title:       title,
		Author:      meta.Author,
		AuthorURL:   meta.AuthorURL,
		PasteURL:    pasteURL,
		RawURL:      rawURL,
		LastEdit:    meta.LastEdit,
		RetrievedAt: c.now().UTC(),
		Body:        body,
		Partial:     displayErr != nil,
	}, nil
}

func (c *Client) fetchMeta(ctx context.Context, pasteURL string) (PasteMeta, error) {
	html, err := c.GetOK(ctx, pasteURL)
	if err != nil {
		return PasteMeta{Author: models.Unknown, AuthorURL: models.Unknown, LastEdit: models.Unknown}, err
	}
	return ParsePaste(html, c.baseURL, c.selectors), nil
}
