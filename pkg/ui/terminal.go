package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Human-facing messages go to stderr so stdout carries only command output
var (
	out     io.Writer = os.Stderr
	colored           = detectColor(os.Stderr)
	quiet   bool
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes when
// color output is enabled
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colored {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func detectColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Configure sets the message writer and output mode. Colors are used only
// when w is a terminal and noColor is false.
func Configure(w io.Writer, noColor, quietMode bool) {
	out = w
	colored = !noColor && detectColor(w)
	quiet = quietMode
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	return quiet
}

// PrintError prints an error message in red. Errors are shown even in quiet mode.
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Magenta(msg))
}
