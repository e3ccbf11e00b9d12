package validate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/epubcore/epubvalidate/pkg/epub"
	"github.com/epubcore/epubvalidate/pkg/report"
	"github.com/gofrs/uuid"
	"golang.org/x/text/language"
)

var supportedVersions = map[string]bool{"2.0": true, "3.0": true, "3.1": true, "3.2": true}

// coreMediaTypes are the EPUB 3 core media types: a fallback chain must
// terminate in one of these (§4.5 OPF-044).
var coreMediaTypes = map[string]bool{
	"application/xhtml+xml":   true,
	"application/x-dtbncx+xml": true,
	"text/css":                true,
	"image/gif":               true,
	"image/jpeg":              true,
	"image/png":               true,
	"image/svg+xml":           true,
	"font/ttf":                true,
	"font/otf":                true,
	"font/woff":               true,
	"font/woff2":              true,
	"application/font-woff":   true,
	"audio/mpeg":              true,
	"audio/mp4":               true,
	"application/smil+xml":    true,
	"application/pls+xml":     true,
	"text/javascript":         true,
	"application/javascript":  true,
}

// reservedPrefixes are the vocabulary prefixes the EPUB 3 spec declares by
// default: they never need a `prefix` attribute declaration (OPF-027).
var reservedPrefixes = map[string]bool{
	"dcterms": true, "marc": true, "media": true, "onix": true,
	"rendition": true, "schema": true, "xsd": true, "a11y": true,
}

// marcRelators is a representative subset of MARC relator codes accepted
// on opf:role (OPF-052). Duplicates across dc:creator/dc:contributor
// collapse via set semantics rather than being reported once per element.
var marcRelators = map[string]bool{
	"aut": true, "edt": true, "ill": true, "trl": true, "nrt": true,
	"aui": true, "ctb": true, "pbl": true, "dsr": true, "art": true,
	"com": true, "cre": true,
}

// checkOPF runs the C5 package-document rules. Returns true on a fatal
// parse failure that blocks further processing.
func checkOPF(ctx *ValidationContext, opts Options) bool {
	ep := ctx.EPUB
	r := ctx.Report
	if err := ep.ParseOPF(); err != nil {
		r.Add("OPF-001", fmt.Sprintf("The package document could not be parsed: %v", err))
		return true
	}
	pkg := ep.Package
	if pkg == nil {
		return true
	}

	checkPackageVersion(pkg, r)
	checkDCTitle(pkg, r)
	checkDCIdentifier(pkg, r)
	checkDCLanguage(pkg, r)
	checkUniqueIdentifierResolves(pkg, r)
	checkLanguageTags(pkg, r)
	checkUUIDFormat(pkg, r)
	checkPackagePrefixDeclarations(pkg, r)
	checkMARCRelators(pkg, r)

	registerManifest(ctx)

	checkManifestUniqueIDsAndHrefs(pkg, r)
	checkManifestPropertyValid(pkg, r)
	checkManifestHrefRules(ep, pkg, r)
	checkCoverImageUnique(pkg, r)

	checkSpineIdrefResolves(pkg, r)
	checkSpineUniqueIdrefs(pkg, r)
	checkSpineHasLinear(pkg, r)
	checkSpineTocResolves(ep, pkg, r)

	checkFallbackChains(pkg, r)
	checkRefinesCycle(pkg, r)
	checkCollections(ep, pkg, r)

	checkNoResourcesInMetaInf(ep, r)

	return false
}

// registerManifest populates the C3 resource registry from the manifest
// and spine, so the content scanner can extend it with element/SVG-symbol
// IDs and the reference validator (C7) can resolve targets. ID collection
// itself happens later, during the C6 content scan: scanning here would
// mean every resource gets read and parsed twice.
func registerManifest(ctx *ValidationContext) {
	pkg := ctx.EPUB.Package
	spineIdx := make(map[string]bool, len(pkg.Spine))
	for _, itemref := range pkg.Spine {
		spineIdx[itemref.IDRef] = true
	}
	for _, item := range pkg.Manifest {
		if !item.HasHref() || item.Href == "" {
			continue
		}
		full := ctx.EPUB.ResolveHref(item.Href)
		inSpine := item.HasID() && spineIdx[item.ID]
		hasFallback := item.Fallback != ""
		ctx.Registry.RegisterResource(full, item.MediaType, inSpine, hasFallback)
	}
}

func checkPackageVersion(pkg *epub.Package, r *report.Report) {
	if pkg.Version == "" {
		r.Add("OPF-001", "The package element is missing the required version attribute")
		return
	}
	if !supportedVersions[pkg.Version] {
		r.Add("OPF-001", fmt.Sprintf("Unsupported package version: %q", pkg.Version))
	}
}

func checkDCTitle(pkg *epub.Package, r *report.Report) {
	if len(pkg.Metadata.Titles) == 0 {
		r.Add("OPF-001", "The metadata element must contain at least one dc:title")
	}
}

func checkDCIdentifier(pkg *epub.Package, r *report.Report) {
	if len(pkg.Metadata.Identifiers) == 0 {
		r.Add("OPF-001", "The metadata element must contain at least one dc:identifier")
	}
}

func checkDCLanguage(pkg *epub.Package, r *report.Report) {
	if len(pkg.Metadata.Languages) == 0 {
		r.Add("OPF-001", "The metadata element must contain at least one dc:language")
	}
}

func checkUniqueIdentifierResolves(pkg *epub.Package, r *report.Report) {
	if pkg.UniqueIdentifier == "" {
		return
	}
	for _, id := range pkg.Metadata.Identifiers {
		if id.ID == pkg.UniqueIdentifier {
			return
		}
	}
	r.Add("OPF-030", fmt.Sprintf("unique-identifier %q does not resolve to a dc:identifier element", pkg.UniqueIdentifier))
}

// checkLanguageTags reports OPF-092 for malformed BCP-47 tags, using
// golang.org/x/text/language's strict parser.
func checkLanguageTags(pkg *epub.Package, r *report.Report) {
	for _, lang := range pkg.Metadata.Languages {
		if lang == "" {
			continue
		}
		if _, err := language.Parse(lang); err != nil {
			r.Add("OPF-092", fmt.Sprintf("Invalid BCP-47 language tag: %q", lang))
		}
	}
	for _, lang := range pkg.AllXMLLangs {
		if lang == "" {
			continue
		}
		if _, err := language.Parse(lang); err != nil {
			r.Add("OPF-092", fmt.Sprintf("Invalid BCP-47 language tag: %q", lang))
		}
	}
}

// checkUUIDFormat reports OPF-085 for a urn:uuid: identifier whose suffix
// does not parse as an RFC 4122 UUID.
func checkUUIDFormat(pkg *epub.Package, r *report.Report) {
	for _, id := range pkg.Metadata.Identifiers {
		const prefix = "urn:uuid:"
		if !strings.HasPrefix(strings.ToLower(id.Value), prefix) {
			continue
		}
		raw := id.Value[len(prefix):]
		if _, err := uuid.FromString(raw); err != nil {
			r.Add("OPF-085", fmt.Sprintf("Invalid urn:uuid: identifier: %q", id.Value))
		}
	}
}

// checkPrefixDeclarations reports OPF-027 for property/scheme prefixes
// used in the package document but neither reserved nor declared on the
// package element's prefix attribute.
func checkPackagePrefixDeclarations(pkg *epub.Package, r *report.Report) {
	declared := parsePrefixAttribute(pkg.Prefix)
	check := func(token string) {
		if i := strings.Index(token, ":"); i > 0 {
			p := token[:i]
			if !reservedPrefixes[p] && !declared[p] {
				r.Add("OPF-027", fmt.Sprintf("Undeclared property prefix: %q", p))
			}
		}
	}
	for _, m := range pkg.PrimaryMetas {
		check(m.Property)
	}
	for _, m := range pkg.MetaRefines {
		check(m.Property)
	}
}

func parsePrefixAttribute(attr string) map[string]string {
	out := make(map[string]string)
	fields := strings.Fields(attr)
	for i := 0; i+1 < len(fields); i++ {
		if strings.HasSuffix(fields[i], ":") {
			name := strings.TrimSuffix(fields[i], ":")
			out[name] = fields[i+1]
			i++
		}
	}
	return out
}

// checkMARCRelators reports OPF-052 once per distinct invalid code, per
// the decision that duplicate relator codes across creators collapse via
// set semantics instead of one diagnostic per occurrence.
func checkMARCRelators(pkg *epub.Package, r *report.Report) {
	invalid := make(map[string]bool)
	for _, c := range pkg.Metadata.Creators {
		if c.Role != "" && !marcRelators[c.Role] {
			invalid[c.Role] = true
		}
	}
	for _, c := range pkg.Metadata.Contributors {
		if c.Role != "" && !marcRelators[c.Role] {
			invalid[c.Role] = true
		}
	}
	codes := make([]string, 0, len(invalid))
	for code := range invalid {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		r.Add("OPF-052", fmt.Sprintf("Invalid MARC relator code: %q", code))
	}
}

func checkManifestUniqueIDsAndHrefs(pkg *epub.Package, r *report.Report) {
	ids := make(map[string]int)
	hrefs := make(map[string]int)
	for _, item := range pkg.Manifest {
		if item.HasID() {
			ids[item.ID]++
		}
		if item.HasHref() {
			hrefs[item.Href]++
		}
	}
	for id, n := range ids {
		if n > 1 {
			r.Add("OPF-074", fmt.Sprintf("Duplicate manifest id: %q", id))
		}
	}
	for href, n := range hrefs {
		if n > 1 {
			r.Add("OPF-074", fmt.Sprintf("Duplicate manifest href: %q", href))
		}
	}
}

// manifestPropertyAllowed restricts a handful of manifest properties to
// media types known to support them (OPF-012).
var manifestPropertyAllowed = map[string]func(mediaType string) bool{
	"nav":         func(mt string) bool { return mt == "application/xhtml+xml" },
	"cover-image": func(mt string) bool { return strings.HasPrefix(mt, "image/") },
	"mathml":      func(mt string) bool { return mt == "application/xhtml+xml" },
	"svg":         func(mt string) bool { return mt == "application/xhtml+xml" },
}

func checkManifestPropertyValid(pkg *epub.Package, r *report.Report) {
	for _, item := range pkg.Manifest {
		for prop := range item.PropertySet() {
			if validator, ok := manifestPropertyAllowed[prop]; ok && !validator(item.MediaType) {
				r.Add("OPF-012", fmt.Sprintf("Property %q is not valid for media type %q", prop, item.MediaType))
			}
		}
	}
}

// checkManifestHrefRules reports OPF-091 (fragment on a manifest href),
// OPF-093 (missing media-type), and OPF-099 (self-reference to the
// package document).
func checkManifestHrefRules(ep *epub.EPUB, pkg *epub.Package, r *report.Report) {
	for _, item := range pkg.Manifest {
		if !item.HasHref() {
			continue
		}
		if strings.Contains(item.Href, "#") {
			r.Add("OPF-091", fmt.Sprintf("Manifest href must not carry a fragment identifier: %q", item.Href))
		}
		if !item.HasMediaType() {
			r.Add("OPF-093", fmt.Sprintf("Manifest item %q requires a media-type attribute", item.Href))
		}
		if item.Href != "" && ep.ResolveHref(item.Href) == ep.RootfilePath {
			r.Add("OPF-099", "A manifest item must not reference the package document itself")
		}
	}
}

func checkCoverImageUnique(pkg *epub.Package, r *report.Report) {
	count := 0
	for _, item := range pkg.Manifest {
		if item.PropertySet()["cover-image"] {
			count++
		}
	}
	if count != 1 {
		r.Add("OPF-096", fmt.Sprintf("Exactly one manifest item must declare the cover-image property, found %d", count))
	}
}

func checkSpineIdrefResolves(pkg *epub.Package, r *report.Report) {
	byID := pkg.ManifestByID()
	for _, itemref := range pkg.Spine {
		if _, ok := byID[itemref.IDRef]; !ok {
			r.Add("OPF-034", fmt.Sprintf("Spine itemref %q does not resolve to a manifest item", itemref.IDRef))
		}
	}
}

func checkSpineUniqueIdrefs(pkg *epub.Package, r *report.Report) {
	seen := make(map[string]int)
	for _, itemref := range pkg.Spine {
		seen[itemref.IDRef]++
	}
	for idref, n := range seen {
		if n > 1 {
			r.Add("OPF-034", fmt.Sprintf("Duplicate itemref idref in the spine: %q", idref))
		}
	}
}

func checkSpineHasLinear(pkg *epub.Package, r *report.Report) {
	for _, itemref := range pkg.Spine {
		if itemref.IsLinear() {
			return
		}
	}
	if len(pkg.Spine) > 0 {
		r.Add("OPF-033", "The spine must contain at least one linear item")
	}
}

func checkSpineTocResolves(ep *epub.EPUB, pkg *epub.Package, r *report.Report) {
	if pkg.SpineToc == "" {
		return
	}
	byID := pkg.ManifestByID()
	item, ok := byID[pkg.SpineToc]
	if !ok {
		r.Add("OPF-049", fmt.Sprintf("Spine toc attribute %q does not resolve to a manifest item", pkg.SpineToc))
		return
	}
	if item.MediaType != "application/x-dtbncx+xml" {
		r.Add("OPF-050", fmt.Sprintf("Spine toc attribute %q does not resolve to an NCX document", pkg.SpineToc))
	}
}

// checkFallbackChains walks each manifest item's fallback chain to the
// root, reporting OPF-040 (dangling link), OPF-045 (cycle), OPF-044 (does
// not terminate in a core media type) and OPF-043 (a spine item using a
// non-core media type with no fallback at all).
func checkFallbackChains(pkg *epub.Package, r *report.Report) {
	byID := pkg.ManifestByID()
	spineIDs := make(map[string]bool, len(pkg.Spine))
	for _, itemref := range pkg.Spine {
		spineIDs[itemref.IDRef] = true
	}

	for _, item := range pkg.Manifest {
		if item.Fallback == "" {
			if spineIDs[item.ID] && !coreMediaTypes[item.MediaType] {
				r.Add("OPF-043", fmt.Sprintf("Spine item %q uses media type %q, which requires a fallback chain", item.ID, item.MediaType))
			}
			continue
		}
		visited := map[string]bool{item.ID: true}
		cur := item
		for cur.Fallback != "" {
			next, ok := byID[cur.Fallback]
			if !ok {
				r.Add("OPF-040", fmt.Sprintf("Fallback chain from %q contains a dangling reference to %q", item.ID, cur.Fallback))
				break
			}
			if visited[next.ID] {
				r.Add("OPF-045", fmt.Sprintf("Fallback chain starting at %q contains a cycle", item.ID))
				break
			}
			visited[next.ID] = true
			cur = next
		}
		if cur.Fallback == "" && !coreMediaTypes[cur.MediaType] {
			r.Add("OPF-044", fmt.Sprintf("Fallback chain from %q does not resolve to a core media type (ended at %q)", item.ID, cur.MediaType))
		}
	}
}

// checkRefinesCycle reports OPF-065 for a refines chain that loops back on
// itself.
func checkRefinesCycle(pkg *epub.Package, r *report.Report) {
	refinesOf := make(map[string]string, len(pkg.MetaRefines))
	for _, m := range pkg.MetaRefines {
		if m.ID != "" {
			refinesOf[m.ID] = strings.TrimPrefix(m.Refines, "#")
		}
	}
	for start := range refinesOf {
		visited := map[string]bool{start: true}
		cur := refinesOf[start]
		for cur != "" {
			if visited[cur] {
				r.Add("OPF-065", fmt.Sprintf("refines relation starting at %q forms a cycle", start))
				break
			}
			visited[cur] = true
			cur = refinesOf[cur]
		}
	}
}

// checkCollections reports OPF-070 (role looks like a URL but doesn't
// parse), OPF-073 (link doesn't resolve to a manifest item), and OPF-075
// (link must resolve to an XHTML item) for <collection> elements.
func checkCollections(ep *epub.EPUB, pkg *epub.Package, r *report.Report) {
	byHref := make(map[string]epub.ManifestItem, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		if item.HasHref() {
			byHref[ep.ResolveHref(item.Href)] = item
		}
	}
	for _, col := range pkg.Collections {
		if looksLikeURL(col.Role) {
			if _, err := url.Parse(col.Role); err != nil {
				r.Add("OPF-070", fmt.Sprintf("Collection role %q looks like a URL but does not parse as one", col.Role))
			}
		}
		for _, link := range col.Links {
			full := ep.ResolveHref(link)
			item, ok := byHref[full]
			if !ok {
				r.Add("OPF-073", fmt.Sprintf("Collection link %q does not resolve to a manifest item", link))
				continue
			}
			if item.MediaType != "application/xhtml+xml" {
				r.Add("OPF-075", fmt.Sprintf("Collection link %q must resolve to an XHTML manifest item", link))
			}
		}
	}
}

func looksLikeURL(s string) bool {
	return strings.Contains(s, "://")
}

