// Package pastebin talks to a pastebin-style site: it fetches author listing
// pages, reads paste metadata from display pages and downloads raw paste bodies.
//
// Page structure is described by config.SelectorsConfig. Each selector slot is
// a list of CSS selectors tried in order, so layout changes can be absorbed in
// configuration.
//
//	client := pastebin.NewClient(cfg, log)
//	listing, err := client.FetchListing(ctx, "https://pastebin.com/u/someone")
//	for _, ref := range listing.References {
//	    rec, err := client.FetchPaste(ctx, ref)
//	    ...
//	}
package pastebin
