package scraper

import (
	"context"

	"pastescraper/pkg/models"
	"pastescraper/pkg/pastebin"
)

// StopReason says why a crawl of listing pages ended
type StopReason string

const (
	StopNotice        StopReason = "notice"
	StopMaxPages      StopReason = "max_pages"
	StopFetchFailures StopReason = "fetch_failures"
	StopCancelled     StopReason = "cancelled"
	StopSinglePage    StopReason = "single_page"
	StopNoNewRefs     StopReason = "no_new_references"
)

// WalkResult is the outcome of walking the paginated listing
type WalkResult struct {
	References   []models.PasteReference
	PagesFetched int
	LastPage     int
	StopReason   StopReason
}

// walkPages fetches <listingURL>/<n> from startPage upward until a page
// carries the notice marker. The walk is also bounded by MaxPages fetched
// and by MaxConsecutiveFailures failed fetches in a row. A fetched page
// that adds no path missing from seen also ends the walk. seen is updated
// in place and may be nil.
func (s *Scraper) walkPages(ctx context.Context, listingURL string, startPage int, seen map[string]struct{}) WalkResult {
	res := WalkResult{References: []models.PasteReference{}}
	failures := 0
	if seen == nil {
		seen = make(map[string]struct{})
	}

	for page := startPage; ; page++ {
		if ctx.Err() != nil {
			res.StopReason = StopCancelled
			return res
		}
		if s.config.Crawl.MaxPages > 0 && res.PagesFetched >= s.config.Crawl.MaxPages {
			res.StopReason = StopMaxPages
			return res
		}

		url := pastebin.ListingPageURL(listingURL, page)
		listing, err := s.source.FetchListing(ctx, url)
		res.PagesFetched++
		res.LastPage = page

		// A notice ends the walk even when it arrives with an error status
		if listing.HasNotice {
			res.StopReason = StopNotice
			return res
		}

		if err != nil {
			if ctx.Err() != nil {
				res.StopReason = StopCancelled
				return res
			}
			failures++
			s.logger.WarnWithFields("Listing page fetch failed, skipping", map[string]interface{}{
				"page":                 page,
				"url":                  url,
				"error":                err.Error(),
				"consecutive_failures": failures,
			})
			if failures >= s.config.Crawl.MaxConsecutiveFailures {
				res.StopReason = StopFetchFailures
				return res
			}
			continue
		}

		failures = 0
		before := len(res.References)
		res.References = appendUnseen(res.References, listing.References, seen)
		added := len(res.References) - before
		s.logger.DebugWithFields("Listing page parsed", map[string]interface{}{
			"page":       page,
			"references": len(listing.References),
			"new":        added,
		})
		if added == 0 {
			s.logger.WarnWithFields("Listing page added no new pastes, stopping", map[string]interface{}{
				"page": page,
				"url":  url,
			})
			res.StopReason = StopNoNewRefs
			return res
		}
	}
}

// appendUnseen appends the refs whose path is not in seen, keeping
// first-seen order, and records them in seen.
func appendUnseen(dst, refs []models.PasteReference, seen map[string]struct{}) []models.PasteReference {
	for _, ref := range refs {
		if _, dup := seen[ref.Path]; dup {
			continue
		}
		seen[ref.Path] = struct{}{}
		dst = append(dst, ref)
	}
	return dst
}

// Collect gathers every paste reference of target in display order. The
// first listing page must be fetched successfully; later pages are walked
// only when the first one shows a pagination block.
func (s *Scraper) Collect(ctx context.Context, target models.CrawlTarget) (WalkResult, error) {
	listingURL := target.BaseURL()

	if s.robots != nil && s.config.Site.RespectRobots {
		allowed, err := s.robots.Allowed(ctx, listingURL)
		if err != nil {
			return WalkResult{}, err
		}
		if !allowed {
			return WalkResult{}, ErrDisallowed
		}
	}

	first, err := s.source.FetchListing(ctx, listingURL)
	if err != nil {
		return WalkResult{}, err
	}

	seen := make(map[string]struct{}, len(first.References))
	res := WalkResult{
		References:   appendUnseen([]models.PasteReference{}, first.References, seen),
		PagesFetched: 1,
		LastPage:     1,
		StopReason:   StopSinglePage,
	}
	if first.HasNotice {
		res.StopReason = StopNotice
		return res, nil
	}
	if !first.HasPagination {
		return res, nil
	}

	rest := s.walkPages(ctx, listingURL, pastebin.FirstPaginatedPage, seen)
	res.References = append(res.References, rest.References...)
	res.PagesFetched += rest.PagesFetched
	res.LastPage = rest.LastPage
	res.StopReason = rest.StopReason
	return res, nil
}
