package scan

import (
	"fmt"
	"io"
)

// PrintSummary writes a console summary of results and the error summary to w.
func PrintSummary(w io.Writer, results []Result, errs ErrorSummary) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	errorCount := 0
	for _, r := range results {
		if r.Status == StatusError {
			errorCount++
		}
	}

	if errorCount == 0 {
		writef("No errors found!\n")
	} else {
		writef("Errors:\n")
		shown := 0
		for _, r := range results {
			if r.Status != StatusError {
				continue
			}
			writef("  URL: %s\n", r.URL)
			if r.Error != "" {
				writef("  Error: %s\n", r.Error)
			} else {
				writef("  Status: %d\n", r.StatusCode)
			}
			writef("  Depth: %d\n", r.Depth)
			shown++
			if shown < errorCount {
				writef("\n")
			}
		}
	}
	writef("Scanned %d URLs, found %d errors\n", len(results), errorCount)

	if len(errs.ByKind) > 0 {
		writef("\nBy kind:\n")
		for kind, n := range errs.ByKind {
			writef("  %s: %d\n", kind, n)
		}
	}
}
