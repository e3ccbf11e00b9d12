package validate

import (
	"fmt"
	"strings"

	"github.com/epubcore/epubvalidate/pkg/epub"
	"github.com/epubcore/epubvalidate/pkg/registry"
	"github.com/epubcore/epubvalidate/pkg/report"
	"github.com/epubcore/epubvalidate/pkg/urlmodel"
)

// ReferenceType classifies a Reference by the content-model role it plays.
// The classification drives which rules validateReference applies: a
// stylesheet link and a hyperlink both resolve a URL, but only one of
// them may legally carry a fragment (§4.7).
type ReferenceType int

const (
	RefLink ReferenceType = iota
	RefGeneric
	RefHyperlink
	RefStylesheet
	RefImage
	RefAudio
	RefVideo
	RefTrack
	RefFont
	RefMediaOverlay
	RefCite
	RefSVGPaint
	RefSVGClipPath
	RefSVGSymbol
	RefRegionBasedNav
	RefNavTocLink
	RefNavPageListLink
	RefOverlayTextLink
	RefSearchKey
)

func (t ReferenceType) String() string {
	switch t {
	case RefLink:
		return "link"
	case RefHyperlink:
		return "hyperlink"
	case RefStylesheet:
		return "stylesheet"
	case RefImage:
		return "image"
	case RefAudio:
		return "audio"
	case RefVideo:
		return "video"
	case RefTrack:
		return "track"
	case RefFont:
		return "font"
	case RefMediaOverlay:
		return "media-overlay"
	case RefCite:
		return "cite"
	case RefSVGPaint:
		return "svg-paint"
	case RefSVGClipPath:
		return "svg-clip-path"
	case RefSVGSymbol:
		return "svg-symbol"
	case RefRegionBasedNav:
		return "region-based-nav"
	case RefNavTocLink:
		return "nav-toc-link"
	case RefNavPageListLink:
		return "nav-pagelist-link"
	case RefOverlayTextLink:
		return "overlay-text-link"
	case RefSearchKey:
		return "search-key"
	default:
		return "generic"
	}
}

// Reference is one resolvable URL discovered by the content scanner: a
// manifest item's href, a hyperlink's href, a stylesheet url(...), an
// img/audio/video src, an SVG xlink:href — anything the reference
// validator must check for existence, manifest declaration, and
// type-specific constraints.
type Reference struct {
	Type       ReferenceType
	URL        string
	SourcePath string // container path of the document containing the reference
	Line       int

	// NavContext is set for a hyperlink collected from inside a nav
	// document's toc/page-list/landmarks list, regardless of which of
	// those three it came from; a remote target in any of them is
	// NAV-010, not the generic RSC-006/031 a hyperlink elsewhere gets.
	NavContext bool
}

// refRule captures the one per-type fragment constraint §4.7 states
// generally (SVG references that require a fragment to mean anything).
// Everything else reference-type-specific (RSC-010/011/013) is checked
// directly against the relevant types below, matching §4.7.2/§4.7.3's
// wording exactly rather than a generalized table.
type refRule struct {
	requireFragment bool
}

var refRules = map[ReferenceType]refRule{
	RefLink:            {},
	RefGeneric:         {},
	RefHyperlink:       {},
	RefStylesheet:      {},
	RefImage:           {},
	RefAudio:           {},
	RefVideo:           {},
	RefTrack:           {},
	RefFont:            {},
	RefMediaOverlay:    {},
	RefCite:            {},
	RefSVGPaint:        {requireFragment: true},
	RefSVGClipPath:     {requireFragment: true},
	RefSVGSymbol:       {requireFragment: true},
	RefRegionBasedNav:  {},
	RefNavTocLink:      {},
	RefNavPageListLink: {},
	RefOverlayTextLink: {},
	RefSearchKey:       {},
}

// blessedContentTypes are the content-document mime types §4.7.2 permits
// a HYPERLINK/OVERLAY_TEXT_LINK to target outright, keyed by the minimum
// package version that blesses them ("" means every version).
func isBlessedContentType(mime, epubVersion string) bool {
	switch mime {
	case "application/xhtml+xml":
		return true
	case "application/x-dtbook+xml":
		return epubVersion < "3.0"
	case "image/svg+xml":
		return epubVersion >= "3.0"
	}
	return false
}

// isDeprecatedBlessedType reports whether mime is a content-document type
// that's no longer blessed but still tolerated rather than flagged.
func isDeprecatedBlessedType(mime string) bool {
	return mime == "text/x-oeb1-document" || mime == "text/html"
}

// publicationResourceClass is §4.7's PUBLICATION-RESOURCE-CLASS: only a
// reference of one of these types exempts its resolved target from the
// "unreferenced manifest item" pass (OPF-097). Notably excludes HYPERLINK
// and the nav-link types: a page only linking to a resource doesn't make
// that resource a publication resource in its own right.
var publicationResourceClass = map[ReferenceType]bool{
	RefGeneric:      true,
	RefStylesheet:   true,
	RefFont:         true,
	RefImage:        true,
	RefAudio:        true,
	RefVideo:        true,
	RefTrack:        true,
	RefMediaOverlay: true,
}

// allowsRemote reports whether t may legally target a remote resource.
// Types outside the PUBLICATION-RESOURCE-CLASS are unrestricted; within
// the class, only AUDIO/VIDEO/FONT may point remote (§4.7.1).
func allowsRemote(t ReferenceType) bool {
	if !publicationResourceClass[t] {
		return true
	}
	return t == RefAudio || t == RefVideo || t == RefFont
}

// isSVGViewFragment reports whether fragment is an SVG view/viewBox
// fragment identifier, e.g. "svgView(viewBox(0,0,100,100))".
func isSVGViewFragment(fragment string) bool {
	return strings.HasPrefix(fragment, "svgView(") || strings.HasPrefix(fragment, "viewBox(")
}

// validateReference applies the C7 classification/validation protocol to
// one discovered reference: malformed/absolute/parent-escaping URLs,
// remote-resource permission, fragment legality, manifest/registry
// presence, and (for publication-resource classes) spine membership. It
// returns the resolved container path and true when the reference
// resolves to a registered resource, so the caller can accumulate the
// "referenced" set the OPF-097 pass needs; it returns ("", false) for
// every reference that never reaches a registry lookup (malformed, file:,
// data:, remote, or one rejected before resolution).
func validateReference(ep *epub.EPUB, reg *registry.Registry, ref Reference, epubVersion string, r *report.Report) (target string, found bool) {
	rule := refRules[ref.Type]

	if urlmodel.IsMalformedURL(ref.URL) {
		r.AddAt("RSC-020", fmt.Sprintf("Reference URL is malformed: %q", ref.URL), ref.SourcePath, ref.Line)
		return "", false
	}

	if urlmodel.IsFileURL(ref.URL) {
		r.AddAt("RSC-026", fmt.Sprintf("file: URLs are not permitted in a publication resource: %q", ref.URL), ref.SourcePath, ref.Line)
		return "", false
	}

	if urlmodel.IsDataURL(ref.URL) {
		if epubVersion >= "3.0" && ref.Type != RefImage && ref.Type != RefAudio && ref.Type != RefVideo && ref.Type != RefFont {
			r.AddAt("RSC-029", fmt.Sprintf("data: URLs are not permitted for this reference type: %s", ref.Type), ref.SourcePath, ref.Line)
		}
		return "", false
	}

	if urlmodel.IsRemote(ref.URL) {
		if ref.NavContext {
			r.AddAt("NAV-010", fmt.Sprintf("Remote resource referenced from a navigation document: %q", ref.URL), ref.SourcePath, ref.Line)
			return "", false
		}
		if !allowsRemote(ref.Type) {
			r.AddAt("RSC-006", fmt.Sprintf("Remote resource reference is not permitted for a %s reference", ref.Type), ref.SourcePath, ref.Line)
			return "", false
		}
		if urlmodel.IsHTTP(ref.URL) {
			r.AddAt("RSC-031", fmt.Sprintf("Non-HTTPS remote resource reference: %q", ref.URL), ref.SourcePath, ref.Line)
		}
		return "", false
	}

	parsed := urlmodel.ParseURL(ref.URL)

	if urlmodel.HasAbsolutePath(parsed.Resource) {
		r.AddAt("RSC-027", fmt.Sprintf("Absolute-path reference is not permitted within the container: %q", ref.URL), ref.SourcePath, ref.Line)
		return "", false
	}

	srcDir := dirOf(ref.SourcePath)
	resolved := urlmodel.ResolveRelative(srcDir, ref.URL, ep.OPFDir())

	parentDirRestricted := ref.Type == RefHyperlink || ref.Type == RefNavTocLink || ref.Type == RefNavPageListLink
	if parentDirRestricted && urlmodel.HasParentDirectoryReference(ref.URL) && urlmodel.ContainerLeak(ref.URL) {
		r.AddAt("RSC-028", fmt.Sprintf("Parent-directory reference escapes the container: %q", ref.URL), ref.SourcePath, ref.Line)
		return "", false
	}

	if rule.requireFragment && !parsed.HasFragment {
		r.AddAt("RSC-015", fmt.Sprintf("A %s reference must include a fragment identifier: %q", ref.Type, ref.URL), ref.SourcePath, ref.Line)
	}

	res := reg.GetResource(resolved.Path)
	if res == nil {
		if _, existsInZip := ep.Files[resolved.Path]; existsInZip {
			r.AddAt("RSC-008", fmt.Sprintf("Referenced resource %q exists in the container but is not declared in the manifest", resolved.Path), ref.SourcePath, ref.Line)
		} else if ref.Type == RefLink {
			r.AddAt("RSC-007w", fmt.Sprintf("Referenced resource could not be found: %q", ref.URL), ref.SourcePath, ref.Line)
		} else {
			r.AddAt("RSC-007", fmt.Sprintf("Referenced resource could not be found: %q", ref.URL), ref.SourcePath, ref.Line)
		}
		return "", false
	}

	if ref.Type == RefHyperlink && !res.InSpine {
		r.AddAt("RSC-011", fmt.Sprintf("Hyperlink targets a resource that is not part of the spine: %q", resolved.Path), ref.SourcePath, ref.Line)
	}
	if (ref.Type == RefHyperlink || ref.Type == RefOverlayTextLink) &&
		!isBlessedContentType(res.MimeType, epubVersion) &&
		!isDeprecatedBlessedType(res.MimeType) &&
		!res.HasCoreFallback {
		r.AddAt("RSC-010", fmt.Sprintf("Hyperlink targets a resource whose media type %q is not a content document", res.MimeType), ref.SourcePath, ref.Line)
	}

	if resolved.Fragment != "" {
		if ref.Type == RefStylesheet {
			r.AddAt("RSC-013", fmt.Sprintf("A stylesheet reference must not carry a fragment identifier: %q", ref.URL), ref.SourcePath, ref.Line)
		} else if ref.Type == RefSVGSymbol {
			if !res.HasSVGSymbolID(resolved.Fragment) {
				r.AddAt("RSC-012", fmt.Sprintf("Fragment identifier %q is not defined in the target resource", resolved.Fragment), ref.SourcePath, ref.Line)
			}
		} else if ref.Type == RefHyperlink && res.MimeType == "image/svg+xml" && isSVGViewFragment(resolved.Fragment) {
			r.AddAt("RSC-014", fmt.Sprintf("Hyperlink targets an SVG view fragment: %q", resolved.Fragment), ref.SourcePath, ref.Line)
		} else if !res.HasID(resolved.Fragment) {
			r.AddAt("RSC-012", fmt.Sprintf("Fragment identifier %q is not defined in the target resource", resolved.Fragment), ref.SourcePath, ref.Line)
		}
	}

	return resolved.Path, true
}

func dirOf(containerPath string) string {
	i := strings.LastIndex(containerPath, "/")
	if i < 0 {
		return ""
	}
	return containerPath[:i]
}
