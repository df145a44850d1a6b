package scraper

import (
	"context"

	"pastescraper/pkg/models"
	"pastescraper/pkg/pastebin"
)

// PasteSource fetches listing pages and pastes
type PasteSource interface {
	FetchListing(ctx context.Context, url string) (pastebin.ListingPage, error)
	FetchPaste(ctx context.Context, ref models.PasteReference) (*models.PasteRecord, error)
}

// PasteStore writes a paste file and returns its path
type PasteStore interface {
	Save(authorSlug, stem string, parts ...string) (string, error)
}

// RobotsPolicy decides whether a URL may be crawled
type RobotsPolicy interface {
	Allowed(ctx context.Context, pageURL string) (bool, error)
}
