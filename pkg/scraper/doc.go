// Package scraper crawls an author's paste listing and either saves every
// paste to disk or prints the listing.
//
// A crawl starts at the author's listing URL. When that page shows a
// pagination block the remaining pages are fetched as <url>/2, <url>/3 and
// so on until a page carries the "no more pastes" notice. The walk is
// bounded by crawl.max_pages and crawl.max_consecutive_failures, and it
// also ends on a page that adds no paste not already seen. Paths are kept
// once, in first-seen order. The reason the walk stopped is recorded in the
// target's report.
//
// Usage:
//
//	client := pastebin.NewClient(cfg, log)
//	store, err := storage.NewManager(cfg.Output.BaseDirectory)
//	if err != nil {
//	    return err
//	}
//
//	s := scraper.New(cfg, client, store, log)
//	rep, err := s.Download(ctx, models.CrawlTarget{URL: "https://pastebin.com/u/someone"})
//
// Download waits crawl.download_delay between consecutive pastes. Each paste
// is written to <output>/<author>/<title slug>.txt; a name that is already
// taken gets a millisecond timestamp suffix, so files are never overwritten.
package scraper
