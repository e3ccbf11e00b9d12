package report

// registryRow is one entry of the static message table (§4.2).
type registryRow struct {
	severity    Severity
	description string
}

// messageTable maps message id -> (default severity, description). The
// id format is ^[A-Z]{3}-\d{3}[a-z]?$ (§6); ids outside this table
// (including any SCH-* passed through from a schema collaborator) default
// to Error via LookupSeverity, per the "total function" invariant in §8.
var messageTable = map[string]registryRow{
	// --- PKG: OCF / archive hygiene ---
	"PKG-003": {Error, "The EPUB publication must be a valid ZIP archive"},
	"PKG-004": {Fatal, "Fatal error in opening ZIP container"},
	"PKG-006": {Error, "The mimetype file must be present, first, and contain exactly \"application/epub+zip\""},
	"PKG-007": {Error, "The mimetype file must be stored without compression and contain no trailing data"},
	"PKG-009": {Error, "The mimetype entry must not carry an extra field in its local header"},
	"PKG-008": {Fatal, "Unable to read the EPUB file"},
	"PKG-010": {Warning, "File name contains a space character"},
	"PKG-011": {Warning, "File name ends with a full stop"},
	"PKG-012": {Usage, "File name contains non-ASCII characters"},
	"PKG-014": {Usage, "Empty directory found in the container"},
	"PKG-013": {Error, "Only one OPF rootfile is allowed in the container"},
	"PKG-015": {Warning, "File path exceeds the recommended length"},
	"PKG-016": {Warning, "The '.epub' file extension should use lowercase characters"},
	"PKG-017": {Error, "File name contains characters forbidden in OCF file names"},
	"PKG-018": {Warning, "Empty directory found in the container"},
	"PKG-019": {Error, "Duplicate entry: file names must be unique after NFC normalization and case folding"},
	"PKG-020": {Fatal, "container.xml does not contain a usable rootfile element"},
	"PKG-021": {Error, "The container.xml version attribute must equal \"1.0\""},
	"PKG-022": {Error, "rootfile element is missing or has an empty full-path attribute"},
	"PKG-023": {Info, "META-INF/encryption.xml is present; encryption support may limit validation"},
	"PKG-025": {Error, "Publication resources must not be placed under META-INF/"},
	"PKG-027": {Fatal, "File name is not a valid UTF-8 encoded string"},

	// --- RSC: resource/reference checks ---
	"RSC-001": {Error, "Referenced resource could not be found in the container"},
	"RSC-002": {Fatal, "Could not find META-INF/container.xml"},
	"RSC-003": {Error, "The rootfile media-type must be application/oebps-package+xml"},
	"RSC-005": {Error, "Invalid content model or duplicate identifier"},
	"RSC-006": {Error, "Remote resource reference not permitted for this reference type"},
	"RSC-007": {Error, "Referenced resource could not be found"},
	"RSC-007w": {Warning, "Referenced resource could not be found"},
	"RSC-008": {Error, "Referenced resource exists in the container but is not declared in the manifest"},
	"RSC-010": {Error, "Hyperlink targets a resource whose media type is not a content document"},
	"RSC-011": {Error, "Hyperlink targets a resource that is not part of the spine"},
	"RSC-012": {Error, "Fragment identifier is not defined in the target resource"},
	"RSC-013": {Error, "A stylesheet reference must not carry a fragment identifier"},
	"RSC-014": {Error, "SVG view/viewBox fragment targeted by a hyperlink"},
	"RSC-015": {Error, "An SVG <use> reference must include a fragment identifier"},
	"RSC-016": {Fatal, "Irrecoverable parse error"},
	"RSC-017": {Warning, "Deprecated feature used"},
	"RSC-020": {Error, "Reference URL is malformed"},
	"RSC-026": {Error, "file: URLs are not permitted in a publication resource"},
	"RSC-027": {Error, "Absolute-path references are not permitted within the container"},
	"RSC-028": {Error, "Parent-directory references are not permitted for this reference type"},
	"RSC-029": {Error, "data: URLs are not permitted in EPUB 3 publication resources"},
	"RSC-031": {Warning, "Non-HTTPS remote resource reference"},

	// --- OPF: package-document rules ---
	"OPF-001": {Error, "Unsupported or missing package version"},
	"OPF-002": {Fatal, "The package document was not found in the container"},
	"OPF-016": {Error, "rootfile element is missing the required full-path attribute"},
	"OPF-017": {Error, "rootfile element has an empty full-path attribute"},
	"OPF-012": {Error, "Manifest item property is not valid for this media type"},
	"OPF-013": {Warning, "Declared type attribute does not match the referenced resource's media type"},
	"OPF-014": {Error, "Content document exhibits a feature whose manifest property was not declared"},
	"OPF-015": {Warning, "Manifest declares a property the content document does not exhibit"},
	"OPF-018": {Warning, "Manifest declares remote-resources but the content document has none"},
	"OPF-025": {Error, "Invalid property token"},
	"OPF-026": {Error, "Invalid scheme token"},
	"OPF-027": {Error, "Undeclared or unknown property prefix"},
	"OPF-030": {Error, "unique-identifier does not resolve to a dc:identifier element"},
	"OPF-031": {Error, "Guide reference does not resolve to a manifest item"},
	"OPF-033": {Error, "The spine must contain at least one linear item"},
	"OPF-034": {Error, "Duplicate itemref idref in the spine"},
	"OPF-037": {Warning, "Deprecated OEB 1.x media type"},
	"OPF-040": {Error, "Fallback chain contains a dangling reference"},
	"OPF-043": {Error, "Spine item's media type requires a fallback chain"},
	"OPF-044": {Error, "Fallback chain does not resolve to a core media type"},
	"OPF-045": {Error, "Fallback chain contains a cycle"},
	"OPF-049": {Error, "Spine toc attribute does not resolve to a manifest item"},
	"OPF-050": {Error, "Spine toc attribute does not resolve to an NCX document"},
	"OPF-052": {Warning, "Invalid MARC relator code"},
	"OPF-065": {Error, "refines relation forms a cycle"},
	"OPF-070": {Error, "Collection role looks like a URL but does not parse as one"},
	"OPF-073": {Error, "Collection link does not resolve to a manifest item"},
	"OPF-074": {Error, "Duplicate manifest id or href"},
	"OPF-075": {Error, "Collection link must resolve to an XHTML manifest item"},
	"OPF-085": {Error, "Invalid urn:uuid: identifier"},
	"OPF-091": {Error, "Manifest href must not carry a fragment identifier"},
	"OPF-092": {Error, "Invalid BCP-47 language tag"},
	"OPF-093": {Error, "Local link target requires a media-type attribute"},
	"OPF-096": {Error, "Exactly one manifest item must declare the cover-image property"},
	"OPF-097": {Usage, "Unreferenced resource declared in the manifest"},
	"OPF-098": {Error, "link element must not target an in-package fragment"},
	"OPF-099": {Error, "Manifest item must not reference the package document itself"},

	// --- HTM: XHTML well-formedness ---
	"HTM-001": {Error, "XML version must be 1.0"},
	"HTM-012": {Error, "Unescaped ampersand in content"},

	// --- MED: media / picture-element checks ---
	"MED-003": {Error, "img within <picture> must resolve to a core image media type"},
	"MED-007": {Error, "<source> within <picture> with a non-core image media type must declare a type attribute"},

	// --- NAV: navigation document checks ---
	"NAV-001": {Error, "Navigation document must contain a nav element of epub:type \"toc\""},
	"NAV-002": {Error, "toc nav must contain an ol element"},
	"NAV-010": {Warning, "Remote resource referenced from a navigation document"},

	// --- CSS: stylesheet checks ---
	"CSS-003": {Warning, "@font-face rule is missing a src descriptor"},
	"CSS-004": {Warning, "Remote font reference requires the remote-resources property"},
}

// suppressed holds message ids disabled by default. Entries here resolve
// to Suppressed from LookupSeverity unless a caller supplies an explicit
// OverrideSeverity at Emit time.
var suppressed = map[string]bool{}

// LookupSeverity resolves id to its default severity. Unknown ids
// (including passthrough SCH-* schema ids) default to Error, per the
// "total function" invariant (§8): every id present in the static table
// is returned; unknown ids default to error severity.
func LookupSeverity(id string) Severity {
	if suppressed[id] {
		return Suppressed
	}
	if row, ok := messageTable[id]; ok {
		return row.severity
	}
	return Error
}

// Describe returns the static table's description for id, or "" if id is
// not registered.
func Describe(id string) string {
	return messageTable[id].description
}
