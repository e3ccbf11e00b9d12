package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/unicode/norm"
)

// Open reads an EPUB file from disk. Use OpenBytes directly when the
// caller already holds the archive as a byte buffer (§6 entry contract).
func Open(filepath string) (*EPUB, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading epub: %w", err)
	}
	ep, err := OpenBytes(data)
	if err != nil {
		return nil, err
	}
	ep.Path = filepath
	return ep, nil
}

// OpenBytes unpacks a ZIP archive held in memory into the container file
// map. It never fails on an unreadable individual entry; the OCF layer
// reports per-entry problems as diagnostics rather than aborting here.
func OpenBytes(data []byte) (*EPUB, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening epub: %w", err)
	}

	ep := &EPUB{Files: make(map[string][]byte, len(zr.File))}
	for i, f := range zr.File {
		name := norm.NFC.String(f.Name)
		ep.Entries = append(ep.Entries, EntryMeta{
			Name:              name,
			CompressionMethod: f.Method,
			ExtraFieldLength:  len(f.Extra),
			IsFirstEntry:      i == 0,
		})
		rc, err := f.Open()
		if err != nil {
			continue
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		ep.Files[name] = b
	}
	return ep, nil
}

// ReadFile returns the bytes of a container path, or an error if absent.
func (ep *EPUB) ReadFile(name string) ([]byte, error) {
	b, ok := ep.Files[name]
	if !ok {
		return nil, fmt.Errorf("file not found in epub: %s", name)
	}
	return b, nil
}

// --- META-INF/container.xml ---

type containerXML struct {
	XMLName   xml.Name       `xml:"container"`
	RootFiles rootFilesXML   `xml:"rootfiles"`
	Links     containerLinks `xml:"links"`
}

type rootFilesXML struct {
	RootFile []rootFileXML `xml:"rootfile"`
}

type rootFileXML struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

type containerLinks struct {
	Link []containerLink `xml:"link"`
}

type containerLink struct {
	Href      string `xml:"href,attr"`
	Rel       string `xml:"rel,attr"`
	MediaType string `xml:"media-type,attr"`
}

// ParseContainer parses META-INF/container.xml and selects RootfilePath:
// the first rootfile declaring application/oebps-package+xml, per C4.
func (ep *EPUB) ParseContainer() error {
	data, err := ep.ReadFile("META-INF/container.xml")
	if err != nil {
		return err
	}
	ep.ContainerData = data

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parsing container.xml: %w", err)
	}

	for _, rf := range c.RootFiles.RootFile {
		ep.AllRootfiles = append(ep.AllRootfiles, Rootfile{FullPath: rf.FullPath, MediaType: rf.MediaType})
	}
	for _, link := range c.Links.Link {
		if link.Href != "" {
			ep.ContainerLinks = append(ep.ContainerLinks, link.Href)
		}
	}

	for _, rf := range c.RootFiles.RootFile {
		if rf.MediaType == "application/oebps-package+xml" {
			ep.RootfilePath = rf.FullPath
			return nil
		}
	}
	if len(c.RootFiles.RootFile) > 0 {
		ep.RootfilePath = c.RootFiles.RootFile[0].FullPath
	}
	return nil
}

// OPFDir returns the directory containing the package document.
func (ep *EPUB) OPFDir() string {
	return path.Dir(ep.RootfilePath)
}

// ResolveHref resolves a manifest href (as written, IRI-percent-encoded)
// against the OPF's directory and returns a cleaned, NFC-normalized
// container path. ZIP entry names are decoded, composed form; manifest
// hrefs may be percent-encoded and/or NFD-decomposed, so both steps run
// before the path is cleaned.
func (ep *EPUB) ResolveHref(href string) string {
	decoded, err := url.PathUnescape(href)
	if err != nil {
		decoded = href
	}
	decoded = norm.NFC.String(decoded)
	dir := ep.OPFDir()
	if dir == "." || dir == "" {
		return path.Clean(decoded)
	}
	return path.Clean(dir + "/" + decoded)
}

// --- OPF structural scan ---

type opfStructInfo struct {
	isLegacyOEBPS12          bool
	version                  string
	uniqueIdentifier         string
	dir                      string
	prefix                   string
	xmlLang                  string
	hasMetadata              bool
	hasManifest              bool
	hasSpine                 bool
	hasGuide                 bool
	spineToc                 string
	pageProgressionDirection string
	spineItems               []SpineItemref
	metas                    []metaInfo
	metaRefines              []MetaRefines
	metaIDs                  []string
	guideRefs                []GuideReference
	elementOrder             []string
	metadataLinks            []MetadataLink
	allXMLLangs              []string
	metaSchemes              []MetaScheme
	metaIDToProperty         map[string]string
	metaEmptyProps           int
	metaListProps            []string
	metaEmptyValues          int
	hasBindings              bool
	unknownElements          []string
	xmlIDCounts              map[string]int
	packageNamespace         string
}

type metaInfo struct {
	property string
	value    string
	refines  string
}

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// ParseOPF parses the package document and populates ep.Package. It uses
// a raw token scan (rather than unmarshalling into a fixed struct) so
// that missing required attributes/elements can be detected as absent
// rather than silently defaulted to the zero value.
func (ep *EPUB) ParseOPF() error {
	if ep.RootfilePath == "" {
		return fmt.Errorf("no rootfile path set")
	}
	data, err := ep.ReadFile(ep.RootfilePath)
	if err != nil {
		return err
	}

	info, err := scanOPFStructure(data)
	if err != nil {
		ep.OPFParseError = err
		return err
	}

	ep.HasMetadata = info.hasMetadata
	ep.HasManifest = info.hasManifest
	ep.HasSpine = info.hasSpine
	ep.IsLegacyOEBPS12 = info.isLegacyOEBPS12
	ep.PackageXMLLang = info.xmlLang

	p := &Package{
		UniqueIdentifier:         info.uniqueIdentifier,
		Version:                  info.version,
		Dir:                      info.dir,
		Prefix:                   info.prefix,
		SpineToc:                 info.spineToc,
		PageProgressionDirection: info.pageProgressionDirection,
		HasGuide:                 info.hasGuide,
		MetaRefines:              info.metaRefines,
		MetaIDs:                  info.metaIDs,
		ElementOrder:             info.elementOrder,
		PackageNamespace:         info.packageNamespace,
		HasBindings:              info.hasBindings,
		UnknownElements:          info.unknownElements,
		XMLIDCounts:              info.xmlIDCounts,
	}

	if info.hasMetadata {
		p.Metadata = parseMetadata(data)
	}

	modifiedCount := 0
	for _, m := range info.metas {
		switch m.property {
		case "dcterms:modified":
			p.Metadata.Modified = m.value
			modifiedCount++
		case "rendition:layout":
			p.RenditionLayout = m.value
		case "rendition:orientation":
			p.RenditionOrientation = m.value
		case "rendition:spread":
			p.RenditionSpread = m.value
		case "rendition:flow":
			p.RenditionFlow = m.value
		case "media:active-class", "media:playback-active-class":
			p.HasMediaActiveClass = true
		}
	}
	p.ModifiedCount = modifiedCount
	p.MetadataLinks = info.metadataLinks
	p.MetaSchemes = info.metaSchemes
	p.AllXMLLangs = info.allXMLLangs
	p.MetaEmptyProps = info.metaEmptyProps
	p.MetaListProps = info.metaListProps
	p.MetaEmptyValues = info.metaEmptyValues

	if p.Metadata.IDToElement == nil {
		p.Metadata.IDToElement = make(map[string]string)
	}
	for id, prop := range info.metaIDToProperty {
		p.Metadata.IDToElement[id] = prop
	}
	for _, m := range info.metas {
		if m.refines == "" {
			p.PrimaryMetas = append(p.PrimaryMetas, MetaPrimary{Property: m.property, Value: m.value})
		}
	}

	items, err := parseManifestRaw(data)
	if err != nil {
		return err
	}
	p.Manifest = items
	p.Spine = info.spineItems
	p.Guide = info.guideRefs
	p.Collections = parseCollections(data)

	ep.Package = p
	return nil
}

func scanOPFStructure(data []byte) (*opfStructInfo, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	info := &opfStructInfo{
		metaIDToProperty: make(map[string]string),
		xmlIDCounts:      make(map[string]int),
	}

	depth := 0
	knownPackageChildren := map[string]bool{
		"metadata": true, "manifest": true, "spine": true, "guide": true,
		"bindings": true, "collection": true,
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if _, ok := tok.(xml.EndElement); ok {
			depth--
			continue
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		for _, attr := range se.Attr {
			if attr.Name.Local == "lang" && (attr.Name.Space == xmlNamespace || attr.Name.Space == "xml") {
				info.allXMLLangs = append(info.allXMLLangs, attr.Value)
			}
			if attr.Name.Local == "id" && attr.Value != "" {
				if n := strings.TrimSpace(attr.Value); n != "" {
					info.xmlIDCounts[n]++
				}
			}
		}

		switch se.Name.Local {
		case "package":
			info.packageNamespace = se.Name.Space
			if se.Name.Space == "http://openebook.org/namespaces/oeb-package/1.0/" {
				info.isLegacyOEBPS12 = true
			}
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "version":
					info.version = attr.Value
				case "unique-identifier":
					info.uniqueIdentifier = attr.Value
				case "dir":
					info.dir = attr.Value
				case "prefix":
					info.prefix = attr.Value
				case "lang":
					if attr.Name.Space == xmlNamespace || attr.Name.Space == "xml" {
						info.xmlLang = attr.Value
					}
				}
			}
		case "metadata":
			info.hasMetadata = true
			info.elementOrder = append(info.elementOrder, "metadata")
		case "manifest":
			info.hasManifest = true
			info.elementOrder = append(info.elementOrder, "manifest")
		case "spine":
			info.hasSpine = true
			info.elementOrder = append(info.elementOrder, "spine")
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "toc":
					info.spineToc = attr.Value
				case "page-progression-direction":
					info.pageProgressionDirection = attr.Value
				}
			}
		case "guide":
			info.hasGuide = true
			info.elementOrder = append(info.elementOrder, "guide")
		case "bindings":
			info.hasBindings = true
		case "itemref":
			var idref, props, linear string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "idref":
					idref = attr.Value
				case "properties":
					props = attr.Value
				case "linear":
					linear = attr.Value
				}
			}
			info.spineItems = append(info.spineItems, SpineItemref{IDRef: idref, Properties: props, Linear: linear})
		case "reference":
			var t, title, href string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "type":
					t = attr.Value
				case "title":
					title = attr.Value
				case "href":
					href = attr.Value
				}
			}
			info.guideRefs = append(info.guideRefs, GuideReference{Type: t, Title: title, Href: href})
		case "meta":
			var prop, refines, val, metaID, scheme string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "property":
					prop = attr.Value
				case "refines":
					refines = attr.Value
				case "id":
					metaID = attr.Value
				case "scheme":
					scheme = attr.Value
				}
			}
			if scheme != "" {
				info.metaSchemes = append(info.metaSchemes, MetaScheme{Scheme: scheme, Property: prop})
			}
			trimmed := strings.TrimSpace(prop)
			if trimmed == "" {
				info.metaEmptyProps++
			} else if strings.Contains(trimmed, " ") {
				info.metaListProps = append(info.metaListProps, prop)
			}
			if trimmed != "" {
				inner, _ := decoder.Token()
				if cd, ok := inner.(xml.CharData); ok {
					val = strings.TrimSpace(string(cd))
				}
				if val == "" {
					info.metaEmptyValues++
				}
				info.metas = append(info.metas, metaInfo{property: prop, value: val, refines: refines})
				if metaID != "" {
					info.metaIDs = append(info.metaIDs, metaID)
					info.metaIDToProperty[metaID] = prop
				}
				if refines != "" {
					info.metaRefines = append(info.metaRefines, MetaRefines{ID: metaID, Refines: refines, Property: prop, Value: val})
				}
			}
		case "link":
			var href, rel, mediaType, hreflang, refines, props string
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "href":
					href = attr.Value
				case "rel":
					rel = attr.Value
				case "media-type":
					mediaType = attr.Value
				case "hreflang":
					hreflang = attr.Value
				case "refines":
					refines = attr.Value
				case "properties":
					props = attr.Value
				}
			}
			if href != "" || rel != "" {
				info.metadataLinks = append(info.metadataLinks, MetadataLink{Href: href, Rel: rel, MediaType: mediaType, Hreflang: hreflang, Refines: refines, Properties: props})
			}
		default:
			if depth == 1 && !knownPackageChildren[se.Name.Local] {
				info.unknownElements = append(info.unknownElements, se.Name.Local)
			}
		}
		depth++
	}
	return info, nil
}

func parseMetadata(data []byte) Metadata {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var md Metadata
	md.IDToElement = make(map[string]string)
	inMetadata := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "metadata" {
				inMetadata = true
				continue
			}
			if !inMetadata {
				continue
			}
			dcID := ""
			for _, attr := range t.Attr {
				if attr.Name.Local == "id" {
					dcID = attr.Value
					break
				}
			}
			if dcID != "" {
				md.DCElementIDs = append(md.DCElementIDs, dcID)
				md.IDToElement[dcID] = t.Name.Local
			}
			switch t.Name.Local {
			case "title":
				md.Titles = append(md.Titles, DCTitle{ID: dcID, Value: readElementText(decoder)})
			case "identifier":
				scheme := attrValue(t, "scheme")
				md.Identifiers = append(md.Identifiers, DCIdentifier{ID: dcID, Value: readElementText(decoder), Scheme: scheme})
			case "language":
				md.Languages = append(md.Languages, readElementText(decoder))
			case "date":
				md.Dates = append(md.Dates, readElementText(decoder))
			case "source":
				if text := readElementText(decoder); text != "" {
					md.Sources = append(md.Sources, text)
				}
			case "creator":
				md.Creators = append(md.Creators, DCCreator{ID: dcID, Value: readElementText(decoder), Role: attrValue(t, "role")})
			case "contributor":
				md.Contributors = append(md.Contributors, DCCreator{ID: dcID, Value: readElementText(decoder), Role: attrValue(t, "role")})
			}
		case xml.EndElement:
			if t.Name.Local == "metadata" {
				inMetadata = false
			}
		}
	}
	return md
}

func attrValue(se xml.StartElement, local string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == local {
			return attr.Value
		}
	}
	return ""
}

func readElementText(decoder *xml.Decoder) string {
	var text string
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			text += string(t)
		case xml.EndElement:
			return strings.TrimSpace(text)
		}
	}
	return strings.TrimSpace(text)
}

func parseManifestRaw(data []byte) ([]ManifestItem, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var items []ManifestItem
	inManifest := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "manifest" {
				inManifest = true
			}
			if inManifest && t.Name.Local == "item" {
				var id, href, mediaType, properties, fallback, fallbackStyle, mediaOverlay string
				var hasID, hasHref, hasMediaType bool
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "id":
						id, hasID = attr.Value, true
					case "href":
						href, hasHref = attr.Value, true
					case "media-type":
						mediaType, hasMediaType = attr.Value, true
					case "properties":
						properties = attr.Value
					case "fallback":
						fallback = attr.Value
					case "fallback-style":
						fallbackStyle = attr.Value
					case "media-overlay":
						mediaOverlay = attr.Value
					}
				}
				item := NewManifestItem(id, hasID, href, hasHref, mediaType, hasMediaType)
				item.Properties = properties
				item.Fallback = fallback
				item.FallbackStyle = fallbackStyle
				item.MediaOverlay = mediaOverlay
				items = append(items, item)
			}
		case xml.EndElement:
			if t.Name.Local == "manifest" {
				inManifest = false
			}
		}
	}
	return items, nil
}

func parseCollections(data []byte) []Collection {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var out []Collection
	depth := 0
	var stack []int // depth at which each open <collection> started

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "collection" {
				c := Collection{TopLevel: depth == 1}
				for _, attr := range t.Attr {
					if attr.Name.Local == "role" {
						c.Role = attr.Value
					}
				}
				out = append(out, c)
				stack = append(stack, len(out)-1)
			} else if t.Name.Local == "link" && len(stack) > 0 {
				idx := stack[len(stack)-1]
				for _, attr := range t.Attr {
					if attr.Name.Local == "href" {
						out[idx].Links = append(out[idx].Links, attr.Value)
					}
				}
			}
			depth++
		case xml.EndElement:
			depth--
			if t.Name.Local == "collection" && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
	return out
}
