package main

import (
	"fmt"
	"os"

	"github.com/epubcore/epubvalidate/pkg/report"
	"github.com/epubcore/epubvalidate/pkg/validate"
	flag "github.com/spf13/pflag"
)

const version = "0.1.0"

func main() {
	var (
		jsonPath      string
		strict        bool
		accessibility bool
		maxErrors     int
		verbose       bool
		showVersion   bool
	)

	flag.StringVar(&jsonPath, "json", "", "write the JSON report to path (\"-\" for stdout)")
	flag.BoolVar(&strict, "strict", false, "enable checks that follow the spec more closely than epubcheck")
	flag.BoolVar(&accessibility, "accessibility", false, "enable accessibility best-practice checks")
	flag.IntVar(&maxErrors, "max-errors", 0, "stop collecting diagnostics after this many errors (0 = unlimited)")
	flag.BoolVarP(&verbose, "verbose", "v", false, "log each validation phase")
	flag.BoolVar(&showVersion, "version", false, "print the version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("epubvalidate %s\n", version)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: epubvalidate <file.epub> [--json path|-] [--strict] [--accessibility] [-v]")
		os.Exit(2)
	}

	epubPath := flag.Arg(0)
	r, err := validate.ValidateWithOptions(epubPath, validate.Options{
		Strict:        strict,
		Accessibility: accessibility,
		MaxErrors:     maxErrors,
		Verbose:       verbose,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(2)
	}

	r.WriteText(os.Stderr)

	if jsonPath != "" {
		if err := writeJSON(r, jsonPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(2)
		}
	}

	switch {
	case r.FatalCount() > 0:
		os.Exit(2)
	case r.ErrorCount() > 0:
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func writeJSON(r *report.Report, path string) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return report.WriteJSON(f, r.IsValid(), "", "", r.Messages)
	}
	return report.WriteJSON(w, r.IsValid(), "", "", r.Messages)
}
