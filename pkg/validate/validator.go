package validate

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/epubcore/epubvalidate/internal/obs"
	"github.com/epubcore/epubvalidate/pkg/epub"
	"github.com/epubcore/epubvalidate/pkg/registry"
	"github.com/epubcore/epubvalidate/pkg/report"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

// Options configures validation behavior.
type Options struct {
	// Strict enables checks that follow the EPUB spec more closely than
	// the reference epubcheck tool (PKG-007 compressed-mimetype, in
	// particular).
	Strict bool

	// Accessibility enables accessibility metadata and navigation
	// best-practice checks. Off by default: the Non-goals scope a full
	// WCAG audit out, but coarse nav-document checks stay opt-in rather
	// than dropped.
	Accessibility bool

	// MaxErrors bounds the number of fatal/error diagnostics collected
	// before the report stops accepting new ones. 0 means unlimited.
	MaxErrors int

	// Verbose turns on per-phase structured logging of the run itself.
	Verbose bool
}

// ValidationContext is the state threaded through every validation
// phase: the parsed container, the accumulating report, the resource
// registry the OPF engine populates and the reference validator reads,
// and a run identifier for correlating log lines with a single pass.
type ValidationContext struct {
	EPUB     *epub.EPUB
	Report   *report.Report
	Registry *registry.Registry
	Log      *zap.Logger
	RunID    string

	// References is the queue of reference targets discovered during the
	// content scan, drained into validateReference calls within the same
	// phase and then discarded (set back to nil).
	References []Reference

	// TocLinks collects the toc nav's anchors as reading-order records,
	// in document order. The record is only collected; no check in the
	// pipeline reads it.
	TocLinks []ReadingOrderRecord
}

// Validate runs all validation checks on an EPUB file path.
func Validate(path string) (*report.Report, error) {
	return ValidateWithOptions(path, Options{})
}

// ValidateWithOptions opens epubPath and validates it.
func ValidateWithOptions(epubPath string, opts Options) (*report.Report, error) {
	ep, err := epub.Open(epubPath)
	if err != nil {
		r := report.NewReport(opts.MaxErrors)
		r.Add("PKG-008", "Unable to read EPUB file: "+err.Error())
		return r, nil
	}
	r, runErr := ValidateBytesOptions(nil, ep, opts)
	ext := filepath.Ext(epubPath)
	if strings.EqualFold(ext, ".epub") && ext != ".epub" {
		r.Add("PKG-016", "The '.epub' file extension should use lowercase characters")
	}
	return r, runErr
}

// ValidateBytes validates an in-memory EPUB archive (§6's validate(bytes,
// options?) entrypoint). A zero-byte or malformed archive is reported as
// a diagnostic rather than a Go error: only I/O failures unrelated to the
// EPUB's own well-formedness return a non-nil error.
func ValidateBytes(data []byte, opts Options) (*report.Report, error) {
	r := report.NewReport(opts.MaxErrors)
	if len(data) == 0 {
		r.Add("PKG-003", "The EPUB publication must be a valid ZIP archive (zip file is empty)")
		return r, nil
	}
	if !bytes.HasPrefix(data, []byte{0x50, 0x4B, 0x03, 0x04}) {
		r.Add("PKG-004", "Fatal error in opening ZIP container (corrupted ZIP header)")
		return r, nil
	}
	ep, err := epub.OpenBytes(data)
	if err != nil {
		r.Add("PKG-008", "Unable to read EPUB file: "+err.Error())
		return r, nil
	}
	return ValidateBytesOptions(r, ep, opts)
}

// ValidateBytesOptions runs the full phase sequence against an already
// opened EPUB, reusing r if supplied (so ValidateBytes and
// ValidateWithOptions share one code path without double-allocating a
// report).
func ValidateBytesOptions(r *report.Report, ep *epub.EPUB, opts Options) (*report.Report, error) {
	if r == nil {
		r = report.NewReport(opts.MaxErrors)
	}
	runID, err := uuid.NewV4()
	runIDStr := ""
	if err == nil {
		runIDStr = runID.String()
	}
	log := obs.New(opts.Verbose)
	defer log.Sync()

	ctx := &ValidationContext{
		EPUB:     ep,
		Report:   r,
		Registry: registry.New(),
		Log:      log,
		RunID:    runIDStr,
	}
	log.Debug("validation run starting", zap.String("run_id", runIDStr))

	log.Debug("phase: OCF container checks")
	if fatal := checkOCF(ctx, opts); fatal {
		return r, nil
	}

	log.Debug("phase: OPF package document checks")
	if err := ep.ParseContainer(); err != nil {
		r.Add("RSC-002", fmt.Sprintf("Could not parse META-INF/container.xml: %v", err))
		return r, nil
	}
	if fatal := checkOPF(ctx, opts); fatal {
		return r, nil
	}

	log.Debug("phase: cross-reference and navigation checks")
	checkReferences(ctx, opts)

	log.Debug("phase: encoding checks")
	badEncoding := checkEncoding(ep, r)

	log.Debug("phase: content document checks")
	checkContentWithSkips(ep, r, badEncoding)

	log.Debug("phase: CSS checks")
	checkCSS(ep, r)

	log.Debug("phase: fixed-layout checks")
	checkFXL(ep, r)

	log.Debug("phase: media checks")
	checkMedia(ep, r)

	log.Debug("phase: EPUB 2 legacy checks")
	checkEPUB2(ep, r)
	checkLegacyNCXForAll(ep, r)

	if opts.Accessibility {
		log.Debug("phase: accessibility checks")
		checkAccessibility(ep, r)
	}

	log.Debug("validation run complete", zap.Int("messages", len(r.Messages)))
	return r, nil
}
