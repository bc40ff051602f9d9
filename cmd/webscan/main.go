// Package main provides the webscan CLI entrypoint: an in-process driver
// for engine.Engine that always runs the scan under the Bubble Tea TUI and,
// when -json, -csv or -o is given, writes the results as structured output
// after the TUI exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grantelam/webscan/engine"
	"github.com/grantelam/webscan/scan"
	"github.com/grantelam/webscan/tui"
)

// cliFlags holds parsed command-line flags.
type cliFlags struct {
	concurrency   int
	depth         int
	maxPages      int
	timeout       time.Duration
	pathFilter    string
	headless      bool
	softErrors    bool
	loginURL      string
	username      string
	password      string
	usernameField string
	passwordField string
	outputJSON    bool
	outputCSV     bool
	outputFile    string
}

// parseFlags parses command-line flags and returns the parsed values.
func parseFlags() *cliFlags {
	opts := &cliFlags{}
	flag.IntVar(&opts.concurrency, "concurrency", 10, "number of concurrent workers")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-request timeout")

	// Depth/page bounds
	flag.IntVar(&opts.depth, "d", 0, "maximum crawl depth (0 = default)")
	flag.IntVar(&opts.depth, "depth", 0, "maximum crawl depth (0 = default)")
	flag.IntVar(&opts.maxPages, "max-pages", 0, "maximum pages to scan (0 = default)")

	flag.StringVar(&opts.pathFilter, "path-filter", "", "regex URLs must match to be scanned")
	flag.BoolVar(&opts.headless, "headless", false, "use a headless browser to render pages before scanning")
	flag.BoolVar(&opts.softErrors, "detect-soft-errors", true, "classify 200-status error pages by body content")

	// Authenticated scanning
	flag.StringVar(&opts.loginURL, "login-url", "", "login form URL; enables authenticated scanning")
	flag.StringVar(&opts.username, "username", "", "login username")
	flag.StringVar(&opts.password, "password", "", "login password")
	flag.StringVar(&opts.usernameField, "username-field", "", "login form username field name")
	flag.StringVar(&opts.passwordField, "password-field", "", "login form password field name")

	// Output format
	flag.BoolVar(&opts.outputJSON, "j", false, "output results as JSON")
	flag.BoolVar(&opts.outputJSON, "json", false, "output results as JSON")
	flag.BoolVar(&opts.outputCSV, "c", false, "output results as CSV")
	flag.BoolVar(&opts.outputCSV, "csv", false, "output results as CSV")
	flag.StringVar(&opts.outputFile, "o", "", "write JSON/CSV output to file")
	flag.StringVar(&opts.outputFile, "output", "", "write JSON/CSV output to file")

	flag.Parse()
	return opts
}

// validateFlags validates flag combinations and returns an error if invalid.
func validateFlags(opts *cliFlags) error {
	if opts.outputJSON && opts.outputCSV {
		return fmt.Errorf("--json and --csv are mutually exclusive")
	}
	if opts.loginURL != "" && (opts.username == "" || opts.password == "") {
		return fmt.Errorf("--login-url requires --username and --password")
	}
	return nil
}

// buildScanConfig creates a scan.Config from flags and the target URL.
func buildScanConfig(opts *cliFlags, rawURL string) scan.Config {
	return scan.Config{
		URL:                rawURL,
		LoginURL:           opts.loginURL,
		Username:           opts.username,
		Password:           opts.password,
		UsernameField:      opts.usernameField,
		PasswordField:      opts.passwordField,
		MaxDepth:           opts.depth,
		MaxPages:           opts.maxPages,
		TimeoutMs:          int(opts.timeout / time.Millisecond),
		MaxConcurrent:      opts.concurrency,
		PathRegexFilter:    opts.pathFilter,
		UseHeadlessBrowser: opts.headless,
		DetectSoftErrors:   opts.softErrors,
	}
}

// runTUI creates and runs the TUI, returning the final model.
func runTUI(ctx context.Context, cancel context.CancelFunc, eng *engine.Engine, cfg scan.Config) (tui.Model, error) {
	tuiModel := tui.NewModel(ctx, cancel, eng, cfg)
	program := tea.NewProgram(tuiModel)

	finalModel, err := program.Run()
	if err != nil {
		return tui.Model{}, fmt.Errorf("run tui: %w", err)
	}

	return finalModel.(tui.Model), nil
}

// writeResults writes structured output to the specified writer.
func writeResults(writer io.Writer, results []scan.Result, useJSON bool) error {
	if useJSON {
		if err := scan.WriteJSON(writer, results); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		return nil
	}
	if err := scan.WriteCSV(writer, results); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// writeStructuredOutput handles writing JSON/CSV output to stdout or a file.
func writeStructuredOutput(opts *cliFlags, outcome *engine.ScanOutcome) error {
	if outcome == nil {
		return nil
	}

	var writer io.Writer = os.Stdout
	if opts.outputFile != "" {
		outFile, err := os.Create(opts.outputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer func() {
			if cerr := outFile.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Error closing output file: %v\n", cerr)
			}
		}()
		writer = outFile
	}

	// Default to JSON if -o specified without format
	useJSON := opts.outputJSON || (!opts.outputCSV && opts.outputFile != "")

	return writeResults(writer, outcome.Results, useJSON)
}

func main() {
	opts := parseFlags()

	if err := validateFlags(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: webscan [flags] <url>")
		fmt.Fprintln(os.Stderr, "Flags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	rawURL := flag.Arg(0)
	parsedURL, err := url.Parse(rawURL)
	if err != nil || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		fmt.Fprintf(os.Stderr, "Invalid URL: %s\nURL must start with http:// or https://\n", rawURL)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := buildScanConfig(opts, rawURL)
	eng := engine.New()

	finalTUIModel, err := runTUI(ctx, cancel, eng, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outcome := finalTUIModel.GetOutcome()

	if opts.outputJSON || opts.outputCSV || opts.outputFile != "" {
		if err := writeStructuredOutput(opts, outcome); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if finalTUIModel.HasErrors() {
		os.Exit(1)
	}
}
