package validate

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/epubcore/epubvalidate/pkg/epub"
	"github.com/epubcore/epubvalidate/pkg/registry"
	"github.com/epubcore/epubvalidate/pkg/report"
)

// ReadingOrderRecord is one toc-nav anchor collected during the content
// scan: target resource, optional fragment, and the nav document location
// it came from. Gathered as a future input for a reading-order comparison
// (spine order vs. toc order) rather than scored against anything yet.
type ReadingOrderRecord struct {
	TargetResource string
	Fragment       string
	Location       string
}

// checkReferences runs the structural manifest/nav-declaration checks,
// then the C6 content scan (extracting Reference values and registering
// element/SVG-symbol IDs from every XHTML/SVG manifest item), then drives
// the queued references through the C7 validator, and finishes with the
// OPF-097 unreferenced-resource sweep. The reference queue is produced,
// consumed, and discarded within this one call.
func checkReferences(ctx *ValidationContext, opts Options) {
	ep := ctx.EPUB
	r := ctx.Report
	pkg := ep.Package
	if pkg == nil {
		return
	}

	// RSC-001: every manifest href must exist in the zip
	checkManifestFilesExist(ep, r)

	// NAV-001: exactly one manifest item with properties="nav"
	checkNavDeclared(ep, r)

	// OPF-026: exactly one nav item (checks >1)
	checkSingleNavItem(ep, r)

	// NAV-002: nav document must have epub:type="toc"
	checkNavHasToc(ep, r)

	for _, item := range pkg.Manifest {
		if !item.HasHref() || item.Href == "" {
			continue
		}
		if item.MediaType != "application/xhtml+xml" && item.MediaType != "image/svg+xml" {
			continue
		}
		fullPath := ep.ResolveHref(item.Href)
		data, err := ep.ReadFile(fullPath)
		if err != nil {
			continue // missing file already reported by RSC-001
		}
		refs, tocLinks := scanContentDocument(ctx.Registry, data, fullPath)
		ctx.References = append(ctx.References, refs...)
		ctx.TocLinks = append(ctx.TocLinks, tocLinks...)
	}

	referenced := make(map[string]bool, len(ctx.References))
	for _, ref := range ctx.References {
		target, found := validateReference(ep, ctx.Registry, ref, pkg.Version, r)
		if found && publicationResourceClass[ref.Type] {
			referenced[target] = true
		}
	}
	ctx.References = nil

	checkUnreferencedResources(ctx, referenced)
}

// RSC-001
func checkManifestFilesExist(ep *epub.EPUB, r *report.Report) {
	for _, item := range ep.Package.Manifest {
		if item.Href == "\x00MISSING" {
			continue
		}
		fullPath := ep.ResolveHref(item.Href)
		if _, exists := ep.Files[fullPath]; !exists {
			r.Add("RSC-001",
				fmt.Sprintf("Referenced resource '%s' could not be found in the container", item.Href))
		}
	}
}

// NAV-001
func checkNavDeclared(ep *epub.EPUB, r *report.Report) {
	if ep.Package.Version < "3.0" {
		return
	}
	count := 0
	for _, item := range ep.Package.Manifest {
		if hasProperty(item.Properties, "nav") {
			count++
		}
	}
	if count == 0 {
		r.Add("NAV-001", "Navigation document must contain a nav element of epub:type \"toc\" (no manifest item declares the nav property)")
	}
}

// OPF-026: Exactly one manifest item must declare the nav property
func checkSingleNavItem(ep *epub.EPUB, r *report.Report) {
	if ep.Package.Version < "3.0" {
		return
	}
	count := 0
	for _, item := range ep.Package.Manifest {
		if hasProperty(item.Properties, "nav") {
			count++
		}
	}
	if count > 1 {
		r.Add("OPF-026",
			fmt.Sprintf("Exactly one manifest item must declare the nav property, but %d were found", count))
	}
}

// NAV-002
func checkNavHasToc(ep *epub.EPUB, r *report.Report) {
	if ep.Package.Version < "3.0" {
		return
	}

	var navHref string
	for _, item := range ep.Package.Manifest {
		if hasProperty(item.Properties, "nav") {
			navHref = item.Href
			break
		}
	}
	if navHref == "" {
		return
	}

	fullPath := ep.ResolveHref(navHref)
	data, err := ep.ReadFile(fullPath)
	if err != nil {
		return
	}

	if !navDocHasToc(data) {
		r.Add("NAV-002", "toc nav must contain an ol element (epub:type='toc' nav element not found)")
	}
}

// checkUnreferencedResources implements the final pass of §4.7: every
// manifest resource that isn't in the spine, isn't the target of any
// PUBLICATION-RESOURCE-CLASS reference, and doesn't look like one of the
// navigation/overlay/cover housekeeping files gets flagged as unused.
// Iterates in manifest insertion order via AllResources for determinism.
func checkUnreferencedResources(ctx *ValidationContext, referenced map[string]bool) {
	for _, res := range ctx.Registry.AllResources() {
		if res.InSpine {
			continue
		}
		if referenced[res.URL] {
			continue
		}
		if isNavLikeResource(res.URL) {
			continue
		}
		ctx.Report.Add("OPF-097",
			fmt.Sprintf("Resource '%s' is declared in the manifest but never referenced", res.URL))
	}
}

func isNavLikeResource(url string) bool {
	return strings.Contains(url, "nav") || strings.Contains(url, ".ncx") || strings.Contains(url, "cover-image")
}

// navScanState tracks the nested nav/picture/media context a content-scan
// decoder loop needs to classify a reference correctly: which nav list (if
// any) an anchor lives in, and what kind of parent a buffered <source>
// belongs to.
type navScanState struct {
	navTypeStack []string // "" for a non-toc/page-list/landmarks nav, so depth still balances
	mediaParent  []string // "audio" or "video", one entry per open media element
	inPicture    int
}

func (s *navScanState) currentNavType() string {
	if len(s.navTypeStack) == 0 {
		return ""
	}
	return s.navTypeStack[len(s.navTypeStack)-1]
}

func (s *navScanState) currentMediaParent() string {
	if len(s.mediaParent) == 0 {
		return ""
	}
	return s.mediaParent[len(s.mediaParent)-1]
}

// scanContentDocument walks one XHTML or SVG content document, registering
// every declared id (and SVG <symbol> id) into reg, and returns the
// references discovered per §4.6.1's element/attribute table together with
// any toc-nav anchors collected as reading-order records. href/src values
// that are media-fragment or epubcfi fragments, or that are CITE
// references to a remote resource, are not resolvable targets and are
// skipped rather than queued.
func scanContentDocument(reg *registry.Registry, data []byte, docPath string) ([]Reference, []ReadingOrderRecord) {
	var refs []Reference
	var tocLinks []ReadingOrderRecord
	state := &navScanState{}

	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			for _, attr := range t.Attr {
				if attr.Name.Local == "id" && attr.Value != "" {
					reg.RegisterID(docPath, attr.Value)
					if t.Name.Local == "symbol" {
						reg.RegisterSVGSymbolID(docPath, attr.Value)
					}
				}
			}

			switch t.Name.Local {
			case "nav":
				navType := ""
				if typ := getAttrVal(t, "type"); typ != "" {
					switch {
					case containsToken(typ, "toc"):
						navType = "toc"
					case containsToken(typ, "page-list"):
						navType = "page-list"
					case containsToken(typ, "landmarks"):
						navType = "landmarks"
					}
				}
				state.navTypeStack = append(state.navTypeStack, navType)

			case "picture":
				state.inPicture++

			case "audio", "video":
				state.mediaParent = append(state.mediaParent, t.Name.Local)
				if href := getAttrVal(t, "src"); href != "" {
					refType := RefAudio
					if t.Name.Local == "video" {
						refType = RefVideo
					}
					refs = appendRef(refs, refType, href, docPath, false)
				}
				if t.Name.Local == "video" {
					if poster := getAttrVal(t, "poster"); poster != "" {
						refs = appendRef(refs, RefImage, poster, docPath, false)
					}
				}

			case "source":
				if href := getAttrVal(t, "src"); href != "" {
					switch {
					case state.inPicture > 0:
						refs = appendRef(refs, RefImage, href, docPath, false)
					case state.currentMediaParent() == "video":
						refs = appendRef(refs, RefVideo, href, docPath, false)
					default:
						refs = appendRef(refs, RefAudio, href, docPath, false)
					}
				}

			case "track":
				if href := getAttrVal(t, "src"); href != "" {
					refs = appendRef(refs, RefTrack, href, docPath, false)
				}

			case "img":
				if href := getAttrVal(t, "src"); href != "" {
					refs = appendRef(refs, RefImage, href, docPath, false)
				}
				if srcset := getAttrVal(t, "srcset"); srcset != "" {
					for _, href := range parseSrcset(srcset) {
						refs = appendRef(refs, RefImage, href, docPath, false)
					}
				}

			case "link":
				href := getAttrVal(t, "href")
				if href != "" {
					if containsToken(getAttrVal(t, "rel"), "stylesheet") {
						refs = appendRef(refs, RefStylesheet, href, docPath, false)
					} else {
						refs = appendRef(refs, RefLink, href, docPath, false)
					}
				}

			case "script":
				if href := getAttrVal(t, "src"); href != "" {
					refs = appendRef(refs, RefGeneric, href, docPath, false)
				}

			case "iframe", "embed":
				if href := getAttrVal(t, "src"); href != "" {
					refs = appendRef(refs, RefGeneric, href, docPath, false)
				}

			case "object":
				if href := getAttrVal(t, "data"); href != "" {
					refs = appendRef(refs, RefGeneric, href, docPath, false)
				}

			case "input":
				if strings.EqualFold(getAttrVal(t, "type"), "image") {
					if href := getAttrVal(t, "src"); href != "" {
						refs = appendRef(refs, RefGeneric, href, docPath, false)
					}
				}

			case "blockquote", "q", "ins", "del":
				if href := getAttrVal(t, "cite"); href != "" {
					if !urlLooksRemote(href) {
						refs = appendRef(refs, RefCite, href, docPath, false)
					}
				}

			case "math":
				if href := getAttrVal(t, "altimg"); href != "" {
					refs = appendRef(refs, RefImage, href, docPath, false)
				}

			case "use":
				if href := getAttrVal(t, "href"); href != "" {
					refs = appendRef(refs, RefSVGSymbol, href, docPath, false)
				}

			case "image":
				if href := getAttrVal(t, "href"); href != "" {
					refs = appendRef(refs, RefImage, href, docPath, false)
				}

			case "a", "area":
				href := getAttrVal(t, "href")
				if href == "" {
					break
				}
				navType := state.currentNavType()
				switch navType {
				case "toc":
					refs = appendRef(refs, RefNavTocLink, href, docPath, true)
					if !strings.Contains(href, "#epubcfi(") {
						res := urlResourceAndFragment(href)
						tocLinks = append(tocLinks, ReadingOrderRecord{
							TargetResource: res.Resource,
							Fragment:       res.Fragment,
							Location:       docPath,
						})
					}
				case "page-list":
					refs = appendRef(refs, RefNavPageListLink, href, docPath, true)
				case "landmarks":
					refs = appendRef(refs, RefHyperlink, href, docPath, true)
				default:
					refs = appendRef(refs, RefHyperlink, href, docPath, false)
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "nav":
				if len(state.navTypeStack) > 0 {
					state.navTypeStack = state.navTypeStack[:len(state.navTypeStack)-1]
				}
			case "picture":
				if state.inPicture > 0 {
					state.inPicture--
				}
			case "audio", "video":
				if len(state.mediaParent) > 0 {
					state.mediaParent = state.mediaParent[:len(state.mediaParent)-1]
				}
			}
		}
	}

	return refs, tocLinks
}

// appendRef filters out references this stage never queues (media-fragment
// and epubcfi fragments aren't element IDs; a bare "#fragment" self-link
// has no resource component worth resolving) before appending.
func appendRef(refs []Reference, t ReferenceType, href, docPath string, navContext bool) []Reference {
	if isSkippedFragment(href) {
		return refs
	}
	if strings.HasPrefix(href, "#") {
		return refs
	}
	return append(refs, Reference{Type: t, URL: href, SourcePath: docPath, NavContext: navContext})
}

func isSkippedFragment(href string) bool {
	i := strings.IndexByte(href, '#')
	if i < 0 {
		return false
	}
	fragment := href[i+1:]
	return strings.HasPrefix(fragment, "epubcfi(") ||
		strings.HasPrefix(fragment, "xywh=") ||
		strings.HasPrefix(fragment, "xyn=") ||
		strings.HasPrefix(fragment, "t=")
}

func urlLooksRemote(u string) bool {
	for _, scheme := range []string{"http://", "https://", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return false
}

type urlParts struct {
	Resource string
	Fragment string
}

func urlResourceAndFragment(u string) urlParts {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return urlParts{Resource: u[:i], Fragment: u[i+1:]}
	}
	return urlParts{Resource: u}
}

// parseSrcset extracts each candidate URL from an img srcset attribute,
// ignoring the width/density descriptor that may follow it.
func parseSrcset(srcset string) []string {
	var out []string
	for _, entry := range strings.Split(srcset, ",") {
		fields := strings.Fields(strings.TrimSpace(entry))
		if len(fields) > 0 && fields[0] != "" {
			out = append(out, fields[0])
		}
	}
	return out
}

func hasProperty(properties, prop string) bool {
	for _, p := range strings.Fields(properties) {
		if p == prop {
			return true
		}
	}
	return false
}
