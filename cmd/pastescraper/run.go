package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pastescraper/internal/runner"
	"pastescraper/pkg/config"
	"pastescraper/pkg/logger"
	"pastescraper/pkg/models"
	"pastescraper/pkg/pastebin"
	"pastescraper/pkg/report"
	"pastescraper/pkg/scraper"
	"pastescraper/pkg/ui"
)

var errNoTargets = errors.New("no target URL given; pass one as an argument or with --url")

// crawl flags shared by download and list
var (
	targetURLs    []string
	baseURL       string
	timeout       time.Duration
	rateLimit     int
	maxPages      int
	targetPolicy  string
	maxParallel   int
	respectRobots bool
)

func addCrawlFlags(fs *pflag.FlagSet) {
	fs.StringArrayVarP(&targetURLs, "url", "u", nil, "author listing URL (repeatable)")
	fs.StringVar(&baseURL, "base-url", "", "site root used to resolve paste links")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "per-request timeout")
	fs.IntVar(&rateLimit, "rate-limit", 0, "maximum requests per minute (0 = no cap)")
	fs.IntVar(&maxPages, "max-pages", 500, "maximum paginated listing pages per target")
	fs.StringVar(&targetPolicy, "target-policy", config.PolicySequential, "how multiple targets run (sequential, parallel)")
	fs.IntVar(&maxParallel, "max-parallel", 4, "targets processed at once with --target-policy=parallel")
	fs.BoolVar(&respectRobots, "respect-robots", false, "skip targets disallowed by robots.txt")
}

// collectTargets merges positional arguments and --url values, dropping
// blanks and repeats while keeping first-seen order
func collectTargets(args, urls []string) []models.CrawlTarget {
	seen := make(map[string]bool)
	var targets []models.CrawlTarget
	for _, raw := range append(append([]string{}, args...), urls...) {
		u := strings.TrimSpace(raw)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		targets = append(targets, models.CrawlTarget{URL: u})
	}
	return targets
}

// changedFlags maps the flags the user set onto config override keys
func changedFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name, key string, value interface{}) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			flags[key] = value
		}
	}

	set("base-url", "base-url", baseURL)
	set("timeout", "timeout", timeout)
	set("rate-limit", "rate-limit", rateLimit)
	set("max-pages", "max-pages", maxPages)
	set("target-policy", "target-policy", targetPolicy)
	set("max-parallel", "max-parallel", maxParallel)
	set("respect-robots", "respect-robots", respectRobots)
	set("outputMainDir", "output-dir", outputDir)
	set("delay", "delay", delay)
	set("allow-unicode", "allow-unicode", allowUnicode)
	set("save-report", "save-report", saveReport)
	set("log-level", "log-level", logLevel)
	set("log-file", "log-file", logFile)
	set("no-color", "no-color", noColor)

	if quiet {
		if _, ok := flags["log-level"]; !ok {
			flags["log-level"] = "error"
		}
	}
	return flags
}

// loadConfig loads configuration and initializes the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, changedFlags(cmd.Flags()))
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newScraper(cfg *config.Config, store scraper.PasteStore, log logger.Logger) *scraper.Scraper {
	client := pastebin.NewClient(cfg, log)
	s := scraper.New(cfg, client, store, log)
	if cfg.Site.RespectRobots {
		s.SetRobots(pastebin.NewRobotsChecker(client, cfg.Site.UserAgent))
	}
	return s
}

// runTargets runs fn for every target under the configured policy, prints
// the run summary and returns an error when any target failed outright
func runTargets(ctx context.Context, cfg *config.Config, s *scraper.Scraper, mode report.Mode, fn runner.TargetFunc, targets []models.CrawlTarget) error {
	runID := report.NewRunID()
	s.SetRunID(runID)

	log := logger.WithField("run_id", runID)
	pool := runner.NewPool(cfg.Workers(), fn, log)
	log.InfoWithFields("Run started", map[string]interface{}{
		"mode":    string(mode),
		"targets": len(targets),
		"policy":  cfg.Crawl.TargetPolicy,
		"workers": pool.GetActiveWorkers(),
	})

	ui.PrintHighlight(fmt.Sprintf("[%s] %d target(s), policy %s", mode, len(targets), cfg.Crawl.TargetPolicy))

	start := time.Now()
	results := pool.Run(ctx, targets)
	reports := runner.Reports(results)

	summary := report.Summarize(runID, mode, reports, time.Since(start))
	summary.Targets = len(targets)
	summary.FailedTargets = runner.Failed(results)

	if ctx.Err() != nil {
		ui.PrintWarning("Run interrupted, remaining targets skipped")
	}
	ui.PrintSummary(summary, reports)
	log.InfoWithFields("Run finished", map[string]interface{}{
		"targets":        summary.Targets,
		"failed_targets": summary.FailedTargets,
		"saved":          summary.Saved,
		"duration":       summary.Duration,
	})

	if !summary.OK() {
		return fmt.Errorf("%d of %d target(s) failed", summary.FailedTargets, summary.Targets)
	}
	return nil
}
