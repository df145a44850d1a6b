package scraper

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pastescraper/internal/testsite"
	"pastescraper/pkg/config"
	"pastescraper/pkg/logger"
	"pastescraper/pkg/models"
	"pastescraper/pkg/pastebin"
	"pastescraper/pkg/report"
	"pastescraper/pkg/storage"
)

func testConfig(baseURL, outputDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = baseURL
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Crawl.DownloadDelay = 0
	cfg.Output.BaseDirectory = outputDir
	return cfg
}

// newSiteScraper wires a real client and storage manager against site
func newSiteScraper(t *testing.T, site *testsite.Site) (*Scraper, *config.Config) {
	t.Helper()
	cfg := testConfig(site.URL(), t.TempDir())
	log := logger.NewTestLogger()

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	require.NoError(t, err)

	s := New(cfg, pastebin.NewClient(cfg, log), store, log)
	s.SetOutput(&bytes.Buffer{})
	return s, cfg
}

// fakeSource serves listing pages from a function and counts fetches
type fakeSource struct {
	listing func(url string) (pastebin.ListingPage, error)
	calls   int32
}

func (f *fakeSource) FetchListing(ctx context.Context, url string) (pastebin.ListingPage, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.listing(url)
}

func (f *fakeSource) FetchPaste(ctx context.Context, ref models.PasteReference) (*models.PasteRecord, error) {
	return &models.PasteRecord{Reference: ref, Title: ref.ID(), Body: "body"}, nil
}

func newFakeScraper(src *fakeSource) *Scraper {
	cfg := testConfig("http://example.invalid", "")
	return New(cfg, src, nil, logger.NewNopLogger())
}

func TestWalkPagesStopsAtNotice(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.SetListing("someone",
		[]string{"p0"},
		[]string{"p1", "p2"},
		[]string{"p3", "p4", "p5"},
	)

	s, _ := newSiteScraper(t, site)
	res := s.walkPages(context.Background(), site.AuthorURL("someone"), 2, nil)

	assert.Equal(t, StopNotice, res.StopReason)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, 4, res.LastPage)
	require.Len(t, res.References, 5)
	assert.Equal(t, "/p1", res.References[0].Path)
	assert.Equal(t, "/p5", res.References[4].Path)

	assert.Equal(t, 1, site.Hits("/u/someone/2"))
	assert.Equal(t, 1, site.Hits("/u/someone/4"))
	assert.Zero(t, site.Hits("/u/someone/5"))
}

func TestWalkPagesMaxPages(t *testing.T) {
	src := &fakeSource{listing: func(url string) (pastebin.ListingPage, error) {
		return pastebin.ListingPage{References: []models.PasteReference{{Path: url[strings.LastIndex(url, "/"):]}}}, nil
	}}
	s := newFakeScraper(src)
	s.config.Crawl.MaxPages = 5

	res := s.walkPages(context.Background(), "http://example.invalid/u/a", 2, nil)
	assert.Equal(t, StopMaxPages, res.StopReason)
	assert.Equal(t, 5, res.PagesFetched)
	assert.Equal(t, 6, res.LastPage)
	assert.Len(t, res.References, 5)
	assert.EqualValues(t, 5, atomic.LoadInt32(&src.calls))
}

func TestWalkPagesStopsWhenPageAddsNothing(t *testing.T) {
	tests := []struct {
		name    string
		listing func(url string) (pastebin.ListingPage, error)
		seen    map[string]struct{}
		want    []string
		fetches int
	}{
		{
			name: "empty page",
			listing: func(url string) (pastebin.ListingPage, error) {
				if strings.HasSuffix(url, "/2") {
					return pastebin.ListingPage{References: []models.PasteReference{{Path: "/a"}}, HasPagination: true}, nil
				}
				return pastebin.ListingPage{HasPagination: true}, nil
			},
			want:    []string{"/a"},
			fetches: 2,
		},
		{
			name: "same page served again",
			listing: func(string) (pastebin.ListingPage, error) {
				return pastebin.ListingPage{References: []models.PasteReference{{Path: "/a"}}, HasPagination: true}, nil
			},
			want:    []string{"/a"},
			fetches: 2,
		},
		{
			name: "repeats first page",
			listing: func(string) (pastebin.ListingPage, error) {
				return pastebin.ListingPage{References: []models.PasteReference{{Path: "/p0"}}}, nil
			},
			seen:    map[string]struct{}{"/p0": {}},
			want:    []string{},
			fetches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{listing: tt.listing}
			s := newFakeScraper(src)

			res := s.walkPages(context.Background(), "http://example.invalid/u/a", 2, tt.seen)
			assert.Equal(t, StopNoNewRefs, res.StopReason)
			assert.Equal(t, tt.fetches, res.PagesFetched)
			assert.Equal(t, tt.want, paths(res.References))
			assert.EqualValues(t, tt.fetches, atomic.LoadInt32(&src.calls))
		})
	}
}

func TestWalkPagesConsecutiveFailures(t *testing.T) {
	src := &fakeSource{listing: func(string) (pastebin.ListingPage, error) {
		return pastebin.ListingPage{}, errors.New("connection reset")
	}}
	s := newFakeScraper(src)

	res := s.walkPages(context.Background(), "http://example.invalid/u/a", 2, nil)
	assert.Equal(t, StopFetchFailures, res.StopReason)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Empty(t, res.References)
}

func TestWalkPagesFailureCounterResets(t *testing.T) {
	// page 2 fails, 3 succeeds, 4 and 5 fail, 6 has the notice
	src := &fakeSource{listing: func(url string) (pastebin.ListingPage, error) {
		switch {
		case strings.HasSuffix(url, "/3"):
			return pastebin.ListingPage{References: []models.PasteReference{{Path: "/ok"}}}, nil
		case strings.HasSuffix(url, "/6"):
			return pastebin.ListingPage{HasNotice: true}, nil
		default:
			return pastebin.ListingPage{}, errors.New("timeout")
		}
	}}
	s := newFakeScraper(src)

	res := s.walkPages(context.Background(), "http://example.invalid/u/a", 2, nil)
	assert.Equal(t, StopNotice, res.StopReason)
	assert.Equal(t, 5, res.PagesFetched)
	assert.Equal(t, []models.PasteReference{{Path: "/ok"}}, res.References)
}

func TestWalkPagesNoticeOnErrorPage(t *testing.T) {
	src := &fakeSource{listing: func(string) (pastebin.ListingPage, error) {
		return pastebin.ListingPage{HasNotice: true}, errors.New("404")
	}}
	s := newFakeScraper(src)

	res := s.walkPages(context.Background(), "http://example.invalid/u/a", 2, nil)
	assert.Equal(t, StopNotice, res.StopReason)
	assert.Equal(t, 1, res.PagesFetched)
}

func TestWalkPagesCancelled(t *testing.T) {
	src := &fakeSource{listing: func(string) (pastebin.ListingPage, error) {
		return pastebin.ListingPage{}, nil
	}}
	s := newFakeScraper(src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.walkPages(ctx, "http://example.invalid/u/a", 2, nil)
	assert.Equal(t, StopCancelled, res.StopReason)
	assert.Zero(t, res.PagesFetched)
}

func TestCollectSkipsWalkWithoutPagination(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.SetListing("someone", []string{"a", "b"})

	s, _ := newSiteScraper(t, site)
	res, err := s.Collect(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	require.NoError(t, err)

	assert.Equal(t, StopSinglePage, res.StopReason)
	assert.Len(t, res.References, 2, nil)
	assert.Zero(t, site.Hits("/u/someone/2"))
}

func TestCollectWithPagination(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.SetListing("someone", []string{"a", "b"}, []string{"c"})

	s, _ := newSiteScraper(t, site)
	res, err := s.Collect(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone") + "/"})
	require.NoError(t, err)

	assert.Equal(t, StopNotice, res.StopReason)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, []string{"/a", "/b", "/c"}, paths(res.References))
}

func TestCollectDropsDuplicatePaths(t *testing.T) {
	src := &fakeSource{listing: func(url string) (pastebin.ListingPage, error) {
		switch {
		case strings.HasSuffix(url, "/2"):
			return pastebin.ListingPage{References: []models.PasteReference{{Path: "/b"}, {Path: "/c"}, {Path: "/a"}}}, nil
		case strings.HasSuffix(url, "/3"):
			return pastebin.ListingPage{HasNotice: true}, nil
		default:
			return pastebin.ListingPage{
				References:    []models.PasteReference{{Path: "/a"}, {Path: "/b"}, {Path: "/a"}},
				HasPagination: true,
			}, nil
		}
	}}
	s := newFakeScraper(src)

	res, err := s.Collect(context.Background(), models.CrawlTarget{URL: "http://example.invalid/u/a"})
	require.NoError(t, err)
	assert.Equal(t, StopNotice, res.StopReason)
	assert.Equal(t, []string{"/a", "/b", "/c"}, paths(res.References))
	assert.Equal(t, 3, res.PagesFetched)
}

func TestDownloadEndToEnd(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.AddPaste(testsite.Paste{ID: "a1", Title: "First Paste", Author: "someone", LastEdit: "Monday 3rd of May 2021", Body: "first body"})
	site.AddPaste(testsite.Paste{ID: "a2", Title: "Second: Paste", Author: "someone", LastEdit: "Tuesday 4th of May 2021", Body: "second body"})
	site.AddPaste(testsite.Paste{ID: "a3", Title: "Guest Paste", LastEdit: "May 5th, 2021", Body: "third body"})
	site.SetListing("someone", []string{"a1", "a2", "a3"})

	s, cfg := newSiteScraper(t, site)
	rep, err := s.Download(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Discovered)
	assert.Equal(t, 3, rep.Saved)
	assert.Zero(t, rep.Partial)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, string(StopSinglePage), rep.StopReason)

	dir := filepath.Join(cfg.Output.BaseDirectory, "someone")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	first := readFile(t, filepath.Join(dir, "First Paste.txt"))
	assert.True(t, strings.HasPrefix(first, "\"First Paste\"\nBy: someone\n"+site.URL()+"/u/someone\n"+site.URL()+"/raw/a1\n\nLast Edit: Monday 3rd of May 2021\nRetrieved: "))
	assert.True(t, strings.HasSuffix(first, "\n\n\n\n\nfirst body"))

	second := readFile(t, filepath.Join(dir, "Second Paste.txt"))
	assert.Contains(t, second, "By: someone")
	assert.Contains(t, second, site.URL()+"/raw/a2")

	guest := readFile(t, filepath.Join(dir, "Guest Paste.txt"))
	assert.Contains(t, guest, "By: Unknown\nUnknown\n")
	assert.Contains(t, guest, "Last Edit: May 5th, 2021")
	assert.Contains(t, guest, "Retrieved: ")
	assert.Contains(t, guest, "GMT")
}

func TestDownloadRecordsFailuresAndContinues(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.AddPaste(testsite.Paste{ID: "ok", Title: "Fine", Author: "someone", Body: "x"})
	site.AddPaste(testsite.Paste{ID: "noraw", Title: "Broken", Author: "someone", Body: "y"})
	site.AddPaste(testsite.Paste{ID: "nopage", Title: "Half", Author: "someone", Body: "z"})
	site.SetListing("someone", []string{"noraw", "ok", "nopage"})
	site.SetErrorResponse("/raw/noraw", http.StatusNotFound)
	site.SetErrorResponse("/nopage", http.StatusInternalServerError)

	s, cfg := newSiteScraper(t, site)
	rep, err := s.Download(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Discovered)
	assert.Equal(t, 2, rep.Saved)
	assert.Equal(t, 1, rep.Partial)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "/noraw", rep.Failures[0].Reference)
	assert.Equal(t, report.StageFetch, rep.Failures[0].Stage)

	partial := readFile(t, filepath.Join(cfg.Output.BaseDirectory, "someone", "nopage.txt"))
	assert.True(t, strings.HasPrefix(partial, "\"nopage\"\nBy: Unknown\nUnknown\n"))
	assert.True(t, strings.HasSuffix(partial, "z"))
}

func TestDownloadFirstPageFailureFailsTarget(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.SetListing("someone", []string{"a"})
	site.SetErrorResponse("/u/someone", http.StatusBadGateway)

	s, _ := newSiteScraper(t, site)
	rep, err := s.Download(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	require.Error(t, err)
	assert.True(t, rep.Failed())
	assert.Zero(t, rep.Saved)
}

func TestDownloadDuplicateTitlesKeepBothFiles(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.AddPaste(testsite.Paste{ID: "d1", Title: "Same", Author: "someone", Body: "one"})
	site.AddPaste(testsite.Paste{ID: "d2", Title: "Same", Author: "someone", Body: "two"})
	site.SetListing("someone", []string{"d1", "d2"})

	s, cfg := newSiteScraper(t, site)
	rep, err := s.Download(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	require.NoError(t, err)
	require.Len(t, rep.Files, 2, nil)

	assert.Equal(t, filepath.Join(cfg.Output.BaseDirectory, "someone", "Same.txt"), rep.Files[0])
	assert.Regexp(t, `Same_\d+\.txt$`, rep.Files[1])
	assert.True(t, strings.HasSuffix(readFile(t, rep.Files[0]), "one"))
	assert.True(t, strings.HasSuffix(readFile(t, rep.Files[1]), "two"))
}

// cancellingStore cancels the run after its first save
type cancellingStore struct {
	PasteStore
	cancel context.CancelFunc
}

func (c *cancellingStore) Save(authorSlug, stem string, parts ...string) (string, error) {
	defer c.cancel()
	return c.PasteStore.Save(authorSlug, stem, parts...)
}

func TestDownloadDelayHonoursCancellation(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.AddPaste(testsite.Paste{ID: "a", Title: "A", Body: "a"})
	site.AddPaste(testsite.Paste{ID: "b", Title: "B", Body: "b"})
	site.SetListing("someone", []string{"a", "b"})

	s, cfg := newSiteScraper(t, site)
	cfg.Crawl.DownloadDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.store = &cancellingStore{PasteStore: s.store, cancel: cancel}

	start := time.Now()
	rep, err := s.Download(ctx, models.CrawlTarget{URL: site.AuthorURL("someone")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)
	assert.Equal(t, 1, rep.Saved)
	assert.Equal(t, string(StopCancelled), rep.StopReason)
	assert.Zero(t, site.Hits("/raw/b"))
}

func TestDownloadSavesReport(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.AddPaste(testsite.Paste{ID: "a", Title: "A", Body: "a"})
	site.SetListing("someone", []string{"a"})

	s, cfg := newSiteScraper(t, site)
	cfg.Output.SaveReport = true
	s.SetRunID("run-42")

	_, err := s.Download(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	require.NoError(t, err)

	saved, err := report.Load(filepath.Join(cfg.Output.BaseDirectory, "someone.report.json"))
	require.NoError(t, err)
	assert.Equal(t, "run-42", saved.RunID)
	assert.Equal(t, 1, saved.Saved)
}

func TestDownloadRespectsRobots(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.SetListing("someone", []string{"a"})
	site.SetRobots("User-agent: *\nDisallow: /u/\n")

	s, cfg := newSiteScraper(t, site)
	cfg.Site.RespectRobots = true
	s.SetRobots(pastebin.NewRobotsChecker(pastebin.NewClient(cfg, logger.NewNopLogger()), "pastescraper"))

	rep, err := s.Download(context.Background(), models.CrawlTarget{URL: site.AuthorURL("someone")})
	assert.ErrorIs(t, err, ErrDisallowed)
	assert.True(t, rep.Failed())
	assert.Zero(t, site.Hits("/u/someone"))
}

func TestListIsIdempotent(t *testing.T) {
	site := testsite.New()
	defer site.Close()
	site.AddPaste(testsite.Paste{ID: "a", Title: "Alpha"})
	site.AddPaste(testsite.Paste{ID: "b", Title: "Beta"})
	site.AddPaste(testsite.Paste{ID: "c", Title: "Gamma"})
	site.SetListing("someone", []string{"a", "b"}, []string{"c"})

	cfg := testConfig(site.URL(), t.TempDir())
	s := New(cfg, pastebin.NewClient(cfg, logger.NewNopLogger()), nil, logger.NewNopLogger())
	target := models.CrawlTarget{URL: site.AuthorURL("someone")}

	var first, second bytes.Buffer
	s.SetOutput(&first)
	rep, err := s.List(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Discovered)

	s.SetOutput(&second)
	_, err = s.List(context.Background(), target)
	require.NoError(t, err)

	want := "someone's listings:\nAlpha - /a\nBeta - /b\nGamma - /c\n"
	assert.Equal(t, want, first.String())
	assert.Equal(t, first.String(), second.String())
	assert.Zero(t, site.Hits("/raw/a"))

	entries, err := os.ReadDir(cfg.Output.BaseDirectory)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFormatListingAligned(t *testing.T) {
	refs := []models.PasteReference{
		{Path: "/1", Title: "a"},
		{Path: "/2", Title: "日本"},
		{Path: "/3", Title: "abc"},
	}

	got := FormatListing("someone", refs, true)
	want := "someone's listings:\n" +
		"a    - /1\n" +
		"日本 - /2\n" +
		"abc  - /3\n"
	assert.Equal(t, want, got)

	assert.Equal(t, "someone's listings:\n", FormatListing("someone", nil, false))
}

func paths(refs []models.PasteReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Path
	}
	return out
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
