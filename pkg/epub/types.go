// Package epub holds the container and package-document data model: the
// shapes the OCF layer and OPF engine populate before the content
// scanner and reference validator ever run (§3).
package epub

import "strings"

// EntryMeta is the per-entry archive metadata the OCF layer's mimetype
// rules need: compression method and extra-field length come straight
// off the central-directory header; IsFirstEntry reflects physical
// order in the archive.
type EntryMeta struct {
	Name              string
	CompressionMethod uint16
	ExtraFieldLength  int
	IsFirstEntry      bool
}

// EPUB represents a parsed container: the archive's file map plus
// whatever container.xml and the package document resolved to.
type EPUB struct {
	Path    string
	Files   map[string][]byte // container path -> bytes, NFC-normalized keys
	Entries []EntryMeta        // archive entries in on-disk order

	RootfilePath    string
	AllRootfiles    []Rootfile
	ContainerLinks  []string
	ContainerData   []byte
	IsLegacyOEBPS12 bool

	Package        *Package
	OPFParseError  error
	HasMetadata    bool
	HasManifest    bool
	HasSpine       bool
	PackageXMLLang string
}

// FirstEntry returns the name of the archive's first physical entry, or "".
func (ep *EPUB) FirstEntry() string {
	for _, e := range ep.Entries {
		if e.IsFirstEntry {
			return e.Name
		}
	}
	return ""
}

// EntryMetaFor returns the recorded metadata for a named entry.
func (ep *EPUB) EntryMetaFor(name string) (EntryMeta, bool) {
	for _, e := range ep.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return EntryMeta{}, false
}

// Rootfile is one <rootfile> element from META-INF/container.xml.
type Rootfile struct {
	FullPath  string
	MediaType string
}

// PropertySet parses a space-separated property-list attribute (manifest
// item `properties`, spine itemref `properties`) into a membership set.
func PropertySet(attr string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(attr) {
		set[tok] = true
	}
	return set
}

// Package is the parsed OPF package document.
type Package struct {
	UniqueIdentifier string
	Version          string
	Dir              string
	Prefix           string
	PackageNamespace string

	Metadata Metadata
	Manifest []ManifestItem
	Spine    []SpineItemref
	SpineToc string
	HasGuide bool
	Guide    []GuideReference

	RenditionLayout          string
	RenditionFlow            string
	RenditionOrientation     string
	RenditionSpread          string
	PageProgressionDirection string
	ModifiedCount            int
	HasMediaActiveClass      bool

	MetaRefines     []MetaRefines
	MetaIDs         []string
	ElementOrder    []string
	MetadataLinks   []MetadataLink
	MetaSchemes     []MetaScheme
	AllXMLLangs     []string
	PrimaryMetas    []MetaPrimary
	MetaEmptyProps  int
	MetaListProps   []string
	MetaEmptyValues int
	HasBindings     bool
	BindingsTypes   map[string]bool
	Collections     []Collection
	UnknownElements []string
	XMLIDCounts     map[string]int
}

// ManifestByID indexes the manifest by id for fallback-chain and itemref resolution.
func (p *Package) ManifestByID() map[string]ManifestItem {
	out := make(map[string]ManifestItem, len(p.Manifest))
	for _, item := range p.Manifest {
		if item.HasID() {
			out[item.ID] = item
		}
	}
	return out
}

// MetaPrimary is a non-refining (top-level) meta element.
type MetaPrimary struct {
	Property string
	Value    string
}

// MetadataLink is a <link> element in the OPF metadata section.
type MetadataLink struct {
	Href       string
	Rel        string
	MediaType  string
	Hreflang   string
	Refines    string
	Properties string
}

// Metadata holds the OPF <metadata> section.
type Metadata struct {
	Titles       []DCTitle
	Identifiers  []DCIdentifier
	Languages    []string
	Modified     string
	Dates        []string
	Sources      []string
	Creators     []DCCreator
	Contributors []DCCreator
	DCElementIDs []string
	IDToElement  map[string]string
}

// DCTitle is a dc:title element with its optional id (an EPUB 3 refines target).
type DCTitle struct {
	ID    string
	Value string
}

// DCCreator is a dc:creator/dc:contributor element with optional opf:role.
type DCCreator struct {
	ID    string
	Value string
	Role  string
}

// MetaRefines is an EPUB 3 <meta refines="#x" property="...">value</meta>.
type MetaRefines struct {
	ID       string
	Refines  string
	Property string
	Value    string
}

// DCIdentifier is a dc:identifier with optional id and opf:scheme (EPUB 2).
type DCIdentifier struct {
	ID     string
	Value  string
	Scheme string
}

// MetaScheme is a scheme attribute observed on a meta element.
type MetaScheme struct {
	Scheme   string
	Property string
}

// ManifestItem is one <item> in the OPF manifest (§3 ManifestItem).
// Href/MediaType track presence separately from value: a missing
// attribute and an empty attribute are different faults (OPF-091/093
// vs. href-not-empty checks).
type ManifestItem struct {
	ID              string
	hasID           bool
	Href            string
	hasHref         bool
	MediaType       string
	hasMediaType    bool
	Properties      string
	Fallback        string
	FallbackStyle   string
	MediaOverlay    string
}

func (m ManifestItem) HasID() bool        { return m.hasID }
func (m ManifestItem) HasHref() bool      { return m.hasHref }
func (m ManifestItem) HasMediaType() bool { return m.hasMediaType }

// NewManifestItem builds a ManifestItem tracking which required
// attributes were actually present in the source XML.
func NewManifestItem(id string, hasID bool, href string, hasHref bool, mediaType string, hasMediaType bool) ManifestItem {
	return ManifestItem{ID: id, hasID: hasID, Href: href, hasHref: hasHref, MediaType: mediaType, hasMediaType: hasMediaType}
}

// PropertySet returns the item's properties as a membership set.
func (m ManifestItem) PropertySet() map[string]bool { return PropertySet(m.Properties) }

// SpineItemref is one <itemref> in the OPF spine.
type SpineItemref struct {
	IDRef      string
	Properties string
	Linear     string
}

// IsLinear reports whether this itemref counts toward "at least one
// linear entry" (OPF-033): linear="no" is the only way to opt out.
func (s SpineItemref) IsLinear() bool { return s.Linear != "no" }

// GuideReference is one EPUB 2 <reference> element inside <guide>.
type GuideReference struct {
	Type  string
	Title string
	Href  string
}

// Collection is a <collection> element in the OPF package document.
type Collection struct {
	Role     string
	TopLevel bool
	Links    []string
}
