package validate

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/epubcore/epubvalidate/pkg/epub"
	"github.com/epubcore/epubvalidate/pkg/report"
	"golang.org/x/text/unicode/norm"
)

// checkOCF runs the C4 container-layer checks: ZIP hygiene, the mimetype
// entry, META-INF/container.xml, and the filename rules that apply
// archive-wide. Returns true when a fatal condition blocks any further
// processing.
func checkOCF(ctx *ValidationContext, opts Options) bool {
	ep, r := ctx.EPUB, ctx.Report
	if checkFilenameUTF8(ep, r) {
		return true
	}

	checkMimetypePresent(ep, r)
	checkMimetypeFirst(ep, r)
	checkMimetypeContent(ep, r)
	checkMimetypeNoExtraField(ep, r)
	if opts.Strict {
		checkMimetypeStored(ep, r)
	}

	if !checkContainerPresent(ep, r) {
		return true
	}
	if !checkContainerWellFormed(ep, r) {
		return true
	}
	checkContainerContentModel(ep, r)

	fatal := false
	if !checkContainerHasRootfile(ep, r) {
		fatal = true
	}
	if !fatal && !checkRootfileExists(ep, r) {
		return true
	}

	checkEncryptionXML(ep, r)
	checkSignaturesXML(ep, r)

	if checkAllRootfilesExist(ep, r) {
		return true
	}
	checkRootfileMediaType(ep, r)
	checkContainerVersion(ep, r)

	checkFilenameValidChars(ep, r)
	checkFilenameSpaces(ep, r)
	checkFilenameTrailingDot(ep, r)
	checkFilenameNonASCII(ep, r)
	checkEmptyDirectories(ep, r)
	checkDuplicateFilenames(ep, r)
	checkFilenameLength(ep, r)

	return fatal
}

// checkFilenameUTF8 reports PKG-027 (fatal) for the first entry whose name
// is not valid UTF-8.
func checkFilenameUTF8(ep *epub.EPUB, r *report.Report) bool {
	for _, e := range ep.Entries {
		if !utf8.ValidString(e.Name) {
			r.Add("PKG-027", fmt.Sprintf("File name is not a valid UTF-8 encoded string: %q", e.Name))
			return true
		}
	}
	return false
}

func checkMimetypePresent(ep *epub.EPUB, r *report.Report) {
	if _, exists := ep.Files["mimetype"]; !exists {
		r.Add("PKG-006", "Required mimetype file not found in the OCF container")
	}
}

func checkMimetypeFirst(ep *epub.EPUB, r *report.Report) {
	if len(ep.Entries) == 0 {
		return
	}
	if _, exists := ep.Files["mimetype"]; !exists {
		return
	}
	if ep.FirstEntry() != "mimetype" {
		r.Add("PKG-006", "The mimetype file must be the first entry in the ZIP archive")
	}
}

func checkMimetypeContent(ep *epub.EPUB, r *report.Report) {
	data, exists := ep.Files["mimetype"]
	if !exists {
		return
	}
	content := strings.TrimSpace(string(data))
	if content != "application/epub+zip" {
		r.Add("PKG-006", fmt.Sprintf("The mimetype file must contain exactly 'application/epub+zip' but was %q", content))
	}
}

// checkMimetypeNoExtraField reports PKG-009 when the mimetype entry's local
// header carries a non-zero extra-field length. The central-directory
// Extra slice klauspost/compress/zip exposes can differ from the local
// header, so this reads the raw bytes directly.
func checkMimetypeNoExtraField(ep *epub.EPUB, r *report.Report) {
	meta, ok := ep.EntryMetaFor("mimetype")
	if !ok {
		return
	}
	if meta.ExtraFieldLength > 0 {
		r.Add("PKG-009", "The mimetype ZIP entry must not carry an extra field in its local header")
	}
}

// mimetypeLocalHeaderExtraLength parses the raw local file header at the
// start of a ZIP archive held in memory, returning its extra-field length.
// Kept as a standalone byte-level check for archives where the central
// directory's Extra field was stripped or rewritten by an intermediate tool.
func mimetypeLocalHeaderExtraLength(archive []byte) (int, error) {
	if len(archive) < 30 {
		return 0, fmt.Errorf("archive too short for a local file header")
	}
	sig := binary.LittleEndian.Uint32(archive[0:4])
	if sig != 0x04034b50 {
		return 0, fmt.Errorf("no local file header signature at offset 0")
	}
	return int(binary.LittleEndian.Uint16(archive[28:30])), nil
}

func checkMimetypeStored(ep *epub.EPUB, r *report.Report) {
	meta, ok := ep.EntryMetaFor("mimetype")
	if !ok {
		return
	}
	const zipStore = 0
	if meta.CompressionMethod != zipStore {
		r.Add("PKG-007", "The mimetype file must be stored without compression in the ZIP archive")
	}
}

func checkContainerPresent(ep *epub.EPUB, r *report.Report) bool {
	if _, exists := ep.Files["META-INF/container.xml"]; !exists {
		r.Add("RSC-002", "Required file META-INF/container.xml was not found in the container")
		return false
	}
	return true
}

func checkContainerWellFormed(ep *epub.EPUB, r *report.Report) bool {
	if err := ep.ParseContainer(); err != nil {
		r.AddAt("RSC-002", "META-INF/container.xml is not well-formed XML", "META-INF/container.xml", 0)
		return false
	}
	return true
}

var allowedContainerChild = map[string]map[string]bool{
	"":          {"container": true},
	"container": {"rootfiles": true, "links": true},
	"rootfiles": {"rootfile": true},
	"links":     {"link": true},
}

// checkContainerContentModel rejects elements the OCF container schema
// doesn't allow: container > rootfiles > rootfile, container > links > link.
func checkContainerContentModel(ep *epub.EPUB, r *report.Report) {
	if ep.ContainerData == nil {
		return
	}
	const containerNS = "urn:oasis:names:tc:opendocument:xmlns:container"
	var stack []string
	decoder := xml.NewDecoder(strings.NewReader(string(ep.ContainerData)))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if t.Name.Space != "" && t.Name.Space != containerNS {
				stack = append(stack, local)
				continue
			}
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			if !allowedContainerChild[parent][local] {
				r.AddAt("RSC-002", fmt.Sprintf("container.xml: element %q is not allowed here", local), "META-INF/container.xml", 0)
			}
			stack = append(stack, local)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

// checkRootfileFullPathAttributes reports OPF-016/OPF-017 for rootfile
// elements missing or emptying the required full-path attribute.
func checkRootfileFullPathAttributes(ep *epub.EPUB, r *report.Report) (hasValidRootfile, emittedAttrError bool) {
	if ep.ContainerData == nil {
		return false, false
	}
	decoder := xml.NewDecoder(strings.NewReader(string(ep.ContainerData)))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "rootfile" {
			continue
		}
		hasFullPath, fullPathEmpty := false, false
		for _, attr := range se.Attr {
			if attr.Name.Local == "full-path" {
				hasFullPath = true
				fullPathEmpty = attr.Value == ""
				break
			}
		}
		switch {
		case !hasFullPath:
			r.AddAt("OPF-016", "The rootfile element is missing the required full-path attribute", "META-INF/container.xml", 0)
			emittedAttrError = true
		case fullPathEmpty:
			r.AddAt("OPF-017", "The rootfile element has an empty full-path attribute", "META-INF/container.xml", 0)
			emittedAttrError = true
		default:
			hasValidRootfile = true
		}
	}
	return hasValidRootfile, emittedAttrError
}

func checkSingleOPFRootfile(ep *epub.EPUB, r *report.Report) {
	count := 0
	for _, rf := range ep.AllRootfiles {
		if rf.MediaType == "application/oebps-package+xml" {
			count++
		}
	}
	if count > 1 {
		r.AddAt("PKG-013", "Only one OPF rootfile is allowed in the container", "META-INF/container.xml", 0)
	}
}

func checkContainerHasRootfile(ep *epub.EPUB, r *report.Report) bool {
	if ep.RootfilePath == "" {
		hasValid, emittedAttrError := checkRootfileFullPathAttributes(ep, r)
		if !emittedAttrError && !hasValid {
			r.AddAt("PKG-020", "META-INF/container.xml does not contain a rootfile element", "META-INF/container.xml", 0)
		} else if emittedAttrError {
			r.AddAt("RSC-003", "No rootfile with media-type application/oebps-package+xml was found", "META-INF/container.xml", 0)
		}
		return false
	}
	checkRootfileFullPathAttributes(ep, r)
	checkSingleOPFRootfile(ep, r)
	return true
}

func checkRootfileExists(ep *epub.EPUB, r *report.Report) bool {
	if ep.RootfilePath == "" {
		return false
	}
	if _, exists := ep.Files[ep.RootfilePath]; !exists {
		r.Add("OPF-002", fmt.Sprintf("The package document %q was not found in the container", ep.RootfilePath))
		return false
	}
	return true
}

func checkAllRootfilesExist(ep *epub.EPUB, r *report.Report) bool {
	if len(ep.AllRootfiles) <= 1 {
		return false
	}
	for _, rf := range ep.AllRootfiles {
		if rf.FullPath == ep.RootfilePath {
			continue
		}
		if _, exists := ep.Files[rf.FullPath]; !exists {
			r.Add("OPF-002", fmt.Sprintf("Rootfile %q was not found in the container", rf.FullPath))
			return true
		}
	}
	return false
}

func checkRootfileMediaType(ep *epub.EPUB, r *report.Report) {
	for _, rf := range ep.AllRootfiles {
		if rf.MediaType == "application/oebps-package+xml" {
			return
		}
	}
	if len(ep.AllRootfiles) > 0 {
		r.AddAt("RSC-003", "No rootfile with media-type application/oebps-package+xml was found", "META-INF/container.xml", 0)
	}
}

// checkEncryptionXML reports RSC-005-class content-model errors in
// META-INF/encryption.xml and an info note that validation cannot see
// through encrypted content.
func checkEncryptionXML(ep *epub.EPUB, r *report.Report) {
	data, exists := ep.Files["META-INF/encryption.xml"]
	if !exists {
		return
	}
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	rootChecked := false
	idCounts := make(map[string]int)
	inEncProp := false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			if ee, ok2 := tok.(xml.EndElement); ok2 && ee.Name.Local == "EncryptionProperty" {
				inEncProp = false
			}
			continue
		}
		local := se.Name.Local
		if !rootChecked {
			rootChecked = true
			if local != "encryption" {
				r.AddAt("RSC-005", fmt.Sprintf("META-INF/encryption.xml: expected element \"encryption\" but found %q", local), "META-INF/encryption.xml", 0)
				return
			}
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "Id" {
				idCounts[attr.Value]++
				if idCounts[attr.Value] > 1 {
					r.AddAt("RSC-005", fmt.Sprintf("META-INF/encryption.xml: duplicate Id %q", attr.Value), "META-INF/encryption.xml", 0)
				}
			}
		}
		switch local {
		case "EncryptionProperty":
			inEncProp = true
		case "Compression":
			if inEncProp {
				for _, attr := range se.Attr {
					if attr.Name.Local == "Method" && attr.Value != "0" && attr.Value != "8" {
						r.AddAt("RSC-005", fmt.Sprintf("META-INF/encryption.xml: invalid Method %q", attr.Value), "META-INF/encryption.xml", 0)
					}
				}
			}
		}
	}
	r.AddAt("PKG-023", "META-INF/encryption.xml is present; encryption support may limit validation", "META-INF/encryption.xml", 0)
}

func checkSignaturesXML(ep *epub.EPUB, r *report.Report) {
	data, exists := ep.Files["META-INF/signatures.xml"]
	if !exists {
		return
	}
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local != "signatures" {
			r.AddAt("RSC-005", fmt.Sprintf("META-INF/signatures.xml: expected element \"signatures\" but found %q", se.Name.Local), "META-INF/signatures.xml", 0)
		}
		return
	}
}

func checkContainerVersion(ep *epub.EPUB, r *report.Report) {
	if ep.ContainerData == nil {
		return
	}
	decoder := xml.NewDecoder(strings.NewReader(string(ep.ContainerData)))
	for {
		tok, err := decoder.Token()
		if err != nil {
			return
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "container" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "version" && attr.Value != "1.0" {
				r.AddAt("PKG-021", fmt.Sprintf("The container.xml version attribute %q must equal \"1.0\"", attr.Value), "META-INF/container.xml", 0)
			}
		}
		return
	}
}

func isFilenameSpaceChar(c rune) bool {
	switch c {
	case 0x0009, 0x000A, 0x000C, 0x000D, 0x0020, 0x2009:
		return true
	}
	return false
}

func formatCodePoint(c rune) string {
	switch {
	case strings.ContainsRune(`"*:<>?\|`, c):
		return fmt.Sprintf("U+%04X (%c)", c, c)
	case c == 0x7F || (c >= 0x80 && c <= 0x9F):
		return fmt.Sprintf("U+%04X (CONTROL)", c)
	case c == 0xFFFD:
		return "U+FFFD (REPLACEMENT CHARACTER)"
	case c >= 0xE000 && c <= 0xF8FF:
		return fmt.Sprintf("U+%04X (PRIVATE USE)", c)
	case c < 0x20:
		return fmt.Sprintf("U+%04X (CONTROL)", c)
	default:
		return fmt.Sprintf("U+%04X", c)
	}
}

// isForbiddenFilenameChar reports OCF file-name characters disallowed by
// the container spec. In EPUB 2, '|' is permitted; EPUB 3 forbids it.
func isForbiddenFilenameChar(c rune, epub2 bool) bool {
	if c < 0x20 {
		return true
	}
	if c == 0x7F || (c >= 0x80 && c <= 0x9F) {
		return true
	}
	switch c {
	case '"', '*', ':', '<', '>', '?', '\\':
		return true
	case '|':
		return !epub2
	}
	if c >= 0xFDD0 && c <= 0xFDEF {
		return true
	}
	if (c&0xFFFF) == 0xFFFE || (c&0xFFFF) == 0xFFFF {
		return true
	}
	if c == 0xFFFD {
		return true
	}
	if (c >= 0xE000 && c <= 0xF8FF) || (c >= 0xF0000 && c <= 0xFFFFF) || (c >= 0x100000 && c <= 0x10FFFF) {
		return true
	}
	return c == 0xE0001
}

func checkFilenameValidChars(ep *epub.EPUB, r *report.Report) {
	isEPUB2 := ep.Package != nil && ep.Package.Version == "2.0"
	for _, e := range ep.Entries {
		seen := make(map[rune]bool)
		var forbidden []rune
		for _, c := range e.Name {
			if isFilenameSpaceChar(c) {
				continue
			}
			if isForbiddenFilenameChar(c, isEPUB2) && !seen[c] {
				seen[c] = true
				forbidden = append(forbidden, c)
			}
		}
		if len(forbidden) == 0 {
			continue
		}
		parts := make([]string, len(forbidden))
		for i, c := range forbidden {
			parts[i] = formatCodePoint(c)
		}
		r.AddAt("PKG-017", fmt.Sprintf("File name contains characters forbidden in OCF file names: %s", strings.Join(parts, ", ")), e.Name, 0)
	}
}

func checkFilenameSpaces(ep *epub.EPUB, r *report.Report) {
	for _, e := range ep.Entries {
		if e.Name == "mimetype" {
			continue
		}
		for _, c := range e.Name {
			if isFilenameSpaceChar(c) {
				r.AddAt("PKG-010", fmt.Sprintf("File name contains a space character: %q", e.Name), e.Name, 0)
				break
			}
		}
	}
}

func checkFilenameTrailingDot(ep *epub.EPUB, r *report.Report) {
	for _, e := range ep.Entries {
		if strings.HasSuffix(e.Name, ".") {
			r.AddAt("PKG-011", fmt.Sprintf("File name must not end with a full stop: %q", e.Name), e.Name, 0)
		}
	}
}

func checkFilenameNonASCII(ep *epub.EPUB, r *report.Report) {
	for _, e := range ep.Entries {
		for _, c := range e.Name {
			if c > 0x7F {
				r.AddAt("PKG-012", fmt.Sprintf("File name contains non-ASCII characters: %q", e.Name), e.Name, 0)
				break
			}
		}
	}
}

func checkEmptyDirectories(ep *epub.EPUB, r *report.Report) {
	files := make(map[string]bool)
	for _, e := range ep.Entries {
		if !strings.HasSuffix(e.Name, "/") {
			files[e.Name] = true
		}
	}
	for _, e := range ep.Entries {
		if !strings.HasSuffix(e.Name, "/") {
			continue
		}
		hasChild := false
		for name := range files {
			if strings.HasPrefix(name, e.Name) {
				hasChild = true
				break
			}
		}
		if !hasChild {
			r.AddAt("PKG-018", fmt.Sprintf("Directory %q is empty", e.Name), e.Name, 0)
		}
	}
}

func fullCaseFold(s string) string {
	s = strings.ToLower(s)
	for _, rep := range [][2]string{
		{"ß", "ss"}, {"ﬀ", "ff"}, {"ﬁ", "fi"}, {"ﬂ", "fl"}, {"ﬃ", "ffi"}, {"ﬄ", "ffl"}, {"ﬅ", "st"}, {"ﬆ", "st"},
	} {
		s = strings.ReplaceAll(s, rep[0], rep[1])
	}
	return s
}

// checkDuplicateFilenames reports PKG-019 when two entries collide once
// both NFC-normalized and fully case-folded (e.g. "Á" NFC vs NFD, or
// "STRASSE" vs "straße").
func checkDuplicateFilenames(ep *epub.EPUB, r *report.Report) {
	seen := make(map[string]string)
	reported := make(map[string]bool)
	for _, e := range ep.Entries {
		key := fullCaseFold(norm.NFC.String(e.Name))
		if existing, ok := seen[key]; ok {
			pairKey := existing + "|" + e.Name
			if existing != e.Name && !reported[pairKey] {
				reported[pairKey] = true
				r.Add("PKG-019", fmt.Sprintf("Duplicate entry after normalization: %q and %q", existing, e.Name))
			}
		} else {
			seen[key] = e.Name
		}
	}
}

func checkFilenameLength(ep *epub.EPUB, r *report.Report) {
	for _, e := range ep.Entries {
		if len(e.Name) > 65535 {
			r.AddAt("PKG-015", fmt.Sprintf("File path exceeds 65535 bytes: %q", e.Name), e.Name, 0)
		}
	}
}

// ValidateFilenameString runs the OCF filename-hygiene rules (PKG-010,
// PKG-011, PKG-012, PKG-017) against a single name, without requiring a
// full EPUB archive. epub2 selects the EPUB 2 forbidden-character set.
func ValidateFilenameString(name string, epub2 bool) *report.Report {
	r := report.NewReport(0)
	version := "3.0"
	if epub2 {
		version = "2.0"
	}
	ep := &epub.EPUB{
		Entries: []epub.EntryMeta{{Name: name}},
		Package: &epub.Package{Version: version},
	}
	checkFilenameValidChars(ep, r)
	checkFilenameSpaces(ep, r)
	checkFilenameTrailingDot(ep, r)
	checkFilenameNonASCII(ep, r)
	return r
}

// checkNoResourcesInMetaInf reports PKG-025 for manifest items resolving
// under META-INF/. Run after the OPF is parsed (§5 ordering).
func checkNoResourcesInMetaInf(ep *epub.EPUB, r *report.Report) {
	if ep.Package == nil {
		return
	}
	for _, item := range ep.Package.Manifest {
		if !item.HasHref() || item.Href == "" {
			continue
		}
		if strings.HasPrefix(item.Href, "http://") || strings.HasPrefix(item.Href, "https://") {
			continue
		}
		fullPath := ep.ResolveHref(item.Href)
		if strings.HasPrefix(fullPath, "META-INF/") {
			r.Add("PKG-025", fmt.Sprintf("Publication resources must not be located under META-INF/: %q", fullPath))
		}
	}
}
