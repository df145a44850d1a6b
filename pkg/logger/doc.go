// Package logger provides the structured logging interface used across the
// paste scraper.
//
// It wraps zerolog. Human-readable lines go to stderr so that command output
// on stdout (such as the list subcommand) stays clean. When a log file is
// configured, JSON lines are also written there and rotated by lumberjack.
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.WithField("author", "someone").Info("Crawl started")
//
// Components take a Logger in their constructors; tests pass NewTestLogger()
// and assert on the captured messages.
package logger
