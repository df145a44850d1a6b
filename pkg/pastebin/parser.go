package pastebin

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pastescraper/pkg/config"
	"pastescraper/pkg/models"
)

// ListingPage is everything read from one author listing page
type ListingPage struct {
	References    []models.PasteReference
	HasPagination bool
	HasNotice     bool
}

// PasteMeta is the metadata read from a paste display page
type PasteMeta struct {
	Title     string
	Author    string
	AuthorURL string
	LastEdit  string
}

const lastEditPrefix = "Last edit on: "

// ParseListingPage extracts paste references and pagination markers from a
// listing page. HTML that cannot be parsed yields an empty page.
func ParseListingPage(html string, sel config.SelectorsConfig) ListingPage {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ListingPage{}
	}

	return ListingPage{
		References:    listingReferences(doc.Selection, sel),
		HasPagination: exists(doc.Selection, sel.Pagination),
		HasNotice:     exists(doc.Selection, sel.Notice),
	}
}

// ParseListing returns the paste references on a listing page in display order
func ParseListing(html string, sel config.SelectorsConfig) []models.PasteReference {
	return ParseListingPage(html, sel).References
}

func listingReferences(doc *goquery.Selection, sel config.SelectorsConfig) []models.PasteReference {
	refs := []models.PasteReference{}

	rows := firstMatch(doc, sel.ListingRows)
	if rows == nil {
		return refs
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		link := firstMatch(row, sel.ListingLink)
		if link == nil {
			return
		}
		link = link.First()

		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		refs = append(refs, models.PasteReference{
			Path:  normalizeRef(href),
			Title: strings.TrimSpace(link.Text()),
		})
	})

	return refs
}

// ParsePaste reads the title and info block of a paste display page.
// Missing pieces fall back to models.Unknown, except the title which is left
// empty for the caller to fill in.
func ParsePaste(html, baseURL string, sel config.SelectorsConfig) PasteMeta {
	meta := PasteMeta{
		Author:    models.Unknown,
		AuthorURL: models.Unknown,
		LastEdit:  models.Unknown,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return meta
	}

	if title := firstMatch(doc.Selection, sel.PasteTitle); title != nil {
		meta.Title = strings.TrimSpace(title.First().Text())
	}

	info := firstMatch(doc.Selection, sel.PasteInfo)
	if info == nil {
		return meta
	}
	info = info.First()

	span := info.Find("span").Last()
	author := info.Find("a").First()

	if author.Length() == 0 {
		if span.Length() > 0 {
			meta.LastEdit = orUnknown(strings.TrimSpace(span.Text()))
		}
		return meta
	}

	meta.Author = orUnknown(strings.TrimSpace(author.Text()))
	if href, ok := author.Attr("href"); ok && strings.TrimSpace(href) != "" {
		meta.AuthorURL = AuthorURL(baseURL, strings.TrimSpace(href))
	}

	if span.Length() > 0 {
		if title, ok := span.Attr("title"); ok && strings.TrimSpace(title) != "" {
			meta.LastEdit = strings.TrimPrefix(strings.TrimSpace(title), lastEditPrefix)
		} else {
			meta.LastEdit = orUnknown(strings.TrimSpace(span.Text()))
		}
	}

	return meta
}

// firstMatch tries selectors in order and returns the first non-empty match
func firstMatch(s *goquery.Selection, selectors []string) *goquery.Selection {
	for _, selector := range selectors {
		if found := s.Find(selector); found.Length() > 0 {
			return found
		}
	}
	return nil
}

func exists(s *goquery.Selection, selectors []string) bool {
	return firstMatch(s, selectors) != nil
}

func orUnknown(s string) string {
	if s == "" {
		return models.Unknown
	}
	return s
}
