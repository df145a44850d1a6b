package pastebin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastescraper/pkg/config"
	"pastescraper/pkg/models"
)

const listingHTML = `<html><body>
<table class="maintable">
  <tr><th>Name / Title</th><th>Added</th><th>Expires</th></tr>
  <tr><td><a href="/aaa111">First paste</a></td><td>Jan 1</td><td>Never</td></tr>
  <tr><td>no link here</td><td>Jan 2</td><td>Never</td></tr>
  <tr><td><a href="/bbb222">  Second paste </a></td><td>Jan 3</td><td>Never</td></tr>
  <tr><td><a href="">empty href</a></td><td>Jan 4</td><td>Never</td></tr>
  <tr><td><a href="https://pastebin.com/ccc333#top">Absolute link</a></td><td>Jan 5</td><td>Never</td></tr>
</table>
<div class="pagination"><a href="/u/someone/2">2</a></div>
</body></html>`

func TestParseListing(t *testing.T) {
	refs := ParseListing(listingHTML, config.DefaultSelectors())

	want := []models.PasteReference{
		{Path: "/aaa111", Title: "First paste"},
		{Path: "/bbb222", Title: "Second paste"},
		{Path: "/ccc333", Title: "Absolute link"},
	}
	assert.Equal(t, want, refs)
}

func TestParseListingPageMarkers(t *testing.T) {
	page := ParseListingPage(listingHTML, config.DefaultSelectors())
	assert.True(t, page.HasPagination)
	assert.False(t, page.HasNotice)

	notice := ParseListingPage(`<html><body><div id="notice">Nothing here</div></body></html>`, config.DefaultSelectors())
	assert.True(t, notice.HasNotice)
	assert.False(t, notice.HasPagination)
	assert.Empty(t, notice.References)
	assert.NotNil(t, notice.References)
}

func TestParseListingHeaderOnly(t *testing.T) {
	html := `<table class="maintable"><tr><th>Name</th></tr></table>`
	assert.Empty(t, ParseListing(html, config.DefaultSelectors()))
}

func TestParseListingFallbackSelectors(t *testing.T) {
	sel := config.DefaultSelectors()
	sel.ListingRows = []string{".missing tr", "table.pastes tbody tr"}
	sel.ListingLink = []string{"td.title a"}

	html := `<table class="pastes"><tbody>
<tr><td class="title"><a href="/x1">One</a></td></tr>
<tr><td class="title"><a href="/x2">Two</a></td></tr>
</tbody></table>`

	refs := ParseListing(html, sel)
	require.Len(t, refs, 2)
	assert.Equal(t, "/x2", refs[1].Path)
}

func TestParseListingGarbage(t *testing.T) {
	assert.Empty(t, ParseListing("\x00\x01 not html <<<", config.DefaultSelectors()))
}

func TestParsePasteWithAuthor(t *testing.T) {
	html := `<div class="paste_box_line1"><h1> My Title </h1></div>
<div class="paste_box_line2">
  <a href="/u/someone">someone</a>
  <span>1 KB</span>
  <span title="Last edit on: Saturday 1st of January 2022 10:00:00 AM CDT">Jan 1st, 2022</span>
</div>`

	meta := ParsePaste(html, "https://pastebin.com", config.DefaultSelectors())
	assert.Equal(t, "My Title", meta.Title)
	assert.Equal(t, "someone", meta.Author)
	assert.Equal(t, "https://pastebin.com/u/someone", meta.AuthorURL)
	assert.Equal(t, "Saturday 1st of January 2022 10:00:00 AM CDT", meta.LastEdit)
}

func TestParsePasteAuthorSpanWithoutTitle(t *testing.T) {
	html := `<div class="paste_box_line2"><a href="/u/someone">someone</a> <span>Jan 1st, 2022</span></div>`
	meta := ParsePaste(html, "https://pastebin.com", config.DefaultSelectors())
	assert.Equal(t, "Jan 1st, 2022", meta.LastEdit)
	assert.Empty(t, meta.Title)
}

func TestParsePasteGuest(t *testing.T) {
	html := `<div class="paste_box_line1">Guest paste</div>
<div class="paste_box_line2">a guest <span title="ignored">Feb 2nd, 2021</span></div>`

	meta := ParsePaste(html, "https://pastebin.com", config.DefaultSelectors())
	assert.Equal(t, "Guest paste", meta.Title)
	assert.Equal(t, models.Unknown, meta.Author)
	assert.Equal(t, models.Unknown, meta.AuthorURL)
	assert.Equal(t, "Feb 2nd, 2021", meta.LastEdit)
}

func TestParsePasteMissingBlocks(t *testing.T) {
	meta := ParsePaste(`<html><body><p>nothing useful</p></body></html>`, "https://pastebin.com", config.DefaultSelectors())
	assert.Empty(t, meta.Title)
	assert.Equal(t, models.Unknown, meta.Author)
	assert.Equal(t, models.Unknown, meta.AuthorURL)
	assert.Equal(t, models.Unknown, meta.LastEdit)
}

func TestParsePasteModernLayoutFallback(t *testing.T) {
	html := `<div class="info-top"><h1>Modern</h1></div>
<div class="info-bottom"><div class="username"><a href="/u/modern">modern</a></div>
<div class="date"><span title="Last edit on: Monday 3rd of June 2024">Jun 3rd, 2024</span></div></div>`

	meta := ParsePaste(html, "https://pastebin.com/", config.DefaultSelectors())
	assert.Equal(t, "Modern", meta.Title)
	assert.Equal(t, "modern", meta.Author)
	assert.Equal(t, "https://pastebin.com/u/modern", meta.AuthorURL)
	assert.Equal(t, "Monday 3rd of June 2024", meta.LastEdit)
}
