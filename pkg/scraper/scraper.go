package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"

	"pastescraper/pkg/config"
	"pastescraper/pkg/logger"
	"pastescraper/pkg/models"
	"pastescraper/pkg/ratelimit"
	"pastescraper/pkg/report"
	"pastescraper/pkg/slug"
)

// ErrDisallowed is returned when robots.txt forbids crawling a target
var ErrDisallowed = stderrors.New("crawling disallowed by robots.txt")

// Scraper runs the download and list operations for crawl targets
type Scraper struct {
	source    PasteSource
	store     PasteStore
	robots    RobotsPolicy
	config    *config.Config
	logger    logger.Logger
	out       io.Writer
	runID     string
	alignList bool
}

// New creates a new Scraper instance. store may be nil when only List is used.
func New(cfg *config.Config, source PasteSource, store PasteStore, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		source: source,
		store:  store,
		config: cfg,
		logger: log,
		out:    os.Stdout,
		runID:  report.NewRunID(),
	}
}

// SetRobots enables the robots.txt check when site.respect_robots is set
func (s *Scraper) SetRobots(r RobotsPolicy) {
	s.robots = r
}

// SetOutput sets where List writes
func (s *Scraper) SetOutput(w io.Writer) {
	s.out = w
}

// SetRunID stamps reports and logs with a shared run identifier
func (s *Scraper) SetRunID(id string) {
	s.runID = id
}

// SetListAlignment pads titles in List output to a common display width
func (s *Scraper) SetListAlignment(align bool) {
	s.alignList = align
}

func (s *Scraper) targetLogger(target models.CrawlTarget, mode report.Mode) logger.Logger {
	return s.logger.WithFields(map[string]interface{}{
		"run_id": s.runID,
		"target": target.URL,
		"author": target.AuthorSlug(),
		"mode":   string(mode),
	})
}

// Download crawls target and saves every paste it lists. Failures of single
// pastes are recorded in the report and the loop moves on. An error is
// returned only when the target as a whole failed.
func (s *Scraper) Download(ctx context.Context, target models.CrawlTarget) (*report.TargetReport, error) {
	authorSlug := target.AuthorSlug()
	rep := report.New(s.runID, target.URL, authorSlug, report.ModeDownload)
	defer rep.Finish()

	log := s.targetLogger(target, report.ModeDownload)
	log.Info("Starting download")

	if s.store == nil {
		err := fmt.Errorf("download of %s: no storage configured", target.URL)
		rep.Fail(err)
		return rep, err
	}

	walk, err := s.Collect(ctx, target)
	if err != nil {
		log.WithError(err).Error("Failed to fetch listing")
		rep.Fail(err)
		return rep, err
	}
	s.applyWalk(rep, walk)

	log.InfoWithFields("Listing collected", map[string]interface{}{
		"references":  len(walk.References),
		"pages":       walk.PagesFetched,
		"stop_reason": string(walk.StopReason),
	})

	for i, ref := range walk.References {
		if i > 0 {
			if err := ratelimit.Sleep(ctx, s.config.Crawl.DownloadDelay); err != nil {
				rep.StopReason = string(StopCancelled)
				rep.Fail(err)
				return rep, err
			}
		}
		s.downloadOne(ctx, log, rep, authorSlug, ref)
	}

	log.InfoWithFields("Download finished", map[string]interface{}{
		"saved":    rep.Saved,
		"partial":  rep.Partial,
		"failures": len(rep.Failures),
	})

	if s.config.Output.SaveReport {
		if path, err := rep.Save(s.config.Output.BaseDirectory); err != nil {
			log.WithError(err).Warn("Failed to write run report")
		} else {
			log.WithField("file", path).Debug("Run report written")
		}
	}

	return rep, nil
}

func (s *Scraper) downloadOne(ctx context.Context, log logger.Logger, rep *report.TargetReport, authorSlug string, ref models.PasteReference) {
	rec, err := s.source.FetchPaste(ctx, ref)
	if err != nil {
		rep.AddFailure(ref.Path, ref.Title, report.StageFetch, err)
		logger.LogPasteSaved(log, authorSlug, ref.Path, "", false, err)
		return
	}

	stem := slug.Make(rec.Title, s.config.Output.AllowUnicode)
	path, err := s.store.Save(authorSlug, stem, rec.Header(), models.BodySeparator, rec.Body)
	if err != nil {
		rep.AddFailure(ref.Path, rec.Title, report.StageSave, err)
		logger.LogPasteSaved(log, authorSlug, ref.Path, "", false, err)
		return
	}

	rep.AddSaved(path, rec.Partial)
	logger.LogPasteSaved(log, authorSlug, ref.Path, path, rec.Partial, nil)
}

// List crawls target and writes its references to the configured output
// without downloading anything
func (s *Scraper) List(ctx context.Context, target models.CrawlTarget) (*report.TargetReport, error) {
	authorSlug := target.AuthorSlug()
	rep := report.New(s.runID, target.URL, authorSlug, report.ModeList)
	defer rep.Finish()

	log := s.targetLogger(target, report.ModeList)

	walk, err := s.Collect(ctx, target)
	if err != nil {
		log.WithError(err).Error("Failed to fetch listing")
		rep.Fail(err)
		return rep, err
	}
	s.applyWalk(rep, walk)

	if _, err := io.WriteString(s.out, FormatListing(authorSlug, walk.References, s.alignList)); err != nil {
		rep.Fail(err)
		return rep, err
	}

	log.InfoWithFields("Listing printed", map[string]interface{}{
		"references":  len(walk.References),
		"stop_reason": string(walk.StopReason),
	})
	return rep, nil
}

// FormatListing renders the header line and one "<title> - <path>" line per
// reference. With align set titles are padded to the widest title's
// display width.
func FormatListing(authorSlug string, refs []models.PasteReference, align bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s's listings:\n", authorSlug)

	width := 0
	if align {
		for _, ref := range refs {
			if w := runewidth.StringWidth(ref.Title); w > width {
				width = w
			}
		}
	}

	for _, ref := range refs {
		title := ref.Title
		if align {
			title = runewidth.FillRight(title, width)
		}
		fmt.Fprintf(&b, "%s - %s\n", title, ref.Path)
	}
	return b.String()
}

func (s *Scraper) applyWalk(rep *report.TargetReport, walk WalkResult) {
	rep.Discovered = len(walk.References)
	rep.PagesFetched = walk.PagesFetched
	rep.StopReason = string(walk.StopReason)
}
