package main

import (
	"os"

	"github.com/spf13/cobra"

	"pastescraper/pkg/logger"
	"pastescraper/pkg/report"
	"pastescraper/pkg/ui"
)

var alignList bool

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list [url...]",
	Short: "Print the pastes of one or more authors",
	Long: `Crawl each author's listing and print it to stdout as

  <author>'s listings:
  <title> - <identifier>

Nothing is downloaded and no delay is applied.`,
	Example: `  pastescraper list https://pastebin.com/u/someone
  pastescraper list -u https://pastebin.com/u/someone --align`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	fs := listCmd.Flags()
	addCrawlFlags(fs)
	fs.BoolVar(&alignList, "align", false, "pad titles so identifiers line up")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return errSilent
	}
	log := logger.GetLogger()

	targets := collectTargets(args, targetURLs)
	if len(targets) == 0 {
		log.Error(errNoTargets.Error())
		return errSilent
	}

	ctx, cancel := shutdownContext(log)
	defer cancel()

	s := newScraper(cfg, nil, log)
	s.SetOutput(os.Stdout)
	s.SetListAlignment(alignList)
	return runTargets(ctx, cfg, s, report.ModeList, s.List, targets)
}
