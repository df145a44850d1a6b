package runner

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"pastescraper/pkg/logger"
	"pastescraper/pkg/models"
	"pastescraper/pkg/report"
)

// TargetFunc runs one crawl target, typically Scraper.Download or Scraper.List
type TargetFunc func(ctx context.Context, target models.CrawlTarget) (*report.TargetReport, error)

// Result is the outcome of one target
type Result struct {
	Target   models.CrawlTarget
	Report   *report.TargetReport
	Err      error
	Duration time.Duration
}

// Pool runs crawl targets with a bounded number of workers. One worker
// gives strictly sequential execution in input order.
type Pool struct {
	numWorkers int
	run        TargetFunc
	logger     logger.Logger
}

// NewPool creates a new target pool
func NewPool(numWorkers int, run TargetFunc, log logger.Logger) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		numWorkers: numWorkers,
		run:        run,
		logger:     log,
	}
}

// Run processes every target and returns one Result per target in input
// order. A failing target does not stop the others; a cancelled ctx stops
// targets that have not started yet.
func (p *Pool) Run(ctx context.Context, targets []models.CrawlTarget) []Result {
	logger.LogComponentStart(p.logger, "target_pool", map[string]interface{}{
		"num_workers": p.numWorkers,
		"targets":     len(targets),
	})

	results := make([]Result, len(targets))

	var g errgroup.Group
	g.SetLimit(p.numWorkers)

	for i, target := range targets {
		g.Go(func() error {
			results[i] = p.process(ctx, i, target)
			return nil
		})
	}
	_ = g.Wait()

	reason := "completed"
	if ctx.Err() != nil {
		reason = "cancelled"
	}
	logger.LogComponentStop(p.logger, "target_pool", reason)

	return results
}

// process handles a single target
func (p *Pool) process(ctx context.Context, index int, target models.CrawlTarget) Result {
	start := time.Now()
	result := Result{Target: target}

	if err := ctx.Err(); err != nil {
		result.Err = err
		p.logger.DebugWithFields("Target skipped, run cancelled", map[string]interface{}{
			"index":  index,
			"target": target.URL,
		})
		return result
	}

	p.logger.DebugWithFields("Processing target", map[string]interface{}{
		"index":  index,
		"target": target.URL,
	})

	result.Report, result.Err = p.run(ctx, target)
	result.Duration = time.Since(start)

	if result.Err != nil {
		p.logger.ErrorWithFields("Target failed", map[string]interface{}{
			"index":    index,
			"target":   target.URL,
			"error":    result.Err.Error(),
			"duration": result.Duration,
		})
		return result
	}

	p.logger.DebugWithFields("Target completed", map[string]interface{}{
		"index":    index,
		"target":   target.URL,
		"duration": result.Duration,
	})
	return result
}

// Reports extracts the non-nil reports from results
func Reports(results []Result) []*report.TargetReport {
	reports := make([]*report.TargetReport, 0, len(results))
	for _, r := range results {
		if r.Report != nil {
			reports = append(reports, r.Report)
		}
	}
	return reports
}

// Failed counts results whose target failed outright or never ran
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// GetActiveWorkers returns the configured number of workers
func (p *Pool) GetActiveWorkers() int {
	return p.numWorkers
}
