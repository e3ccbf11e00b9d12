// Package urlmodel implements the relative-within-container URL grammar
// used throughout the validation pipeline: parsing, remote/local
// classification, and resolution of a manifest or content-document href
// against its declaring document's directory and the OPF directory.
package urlmodel

import (
	"net/url"
	"path"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/text/unicode/norm"
)

// schemeOf returns the lowercased leading URI scheme of u (e.g. "https",
// "data", "urn") and whether u has one: a run of letters, digits, '+', '-'
// or '.' terminated by ':' before any '/', '?' or '#'.
func schemeOf(u string) (string, bool) {
	i := strings.IndexAny(u, ":/?#")
	if i < 0 || u[i] != ':' {
		return "", false
	}
	scheme := u[:i]
	if scheme == "" {
		return "", false
	}
	for _, c := range scheme {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.') {
			return "", false
		}
	}
	return strings.ToLower(scheme), true
}

// IsRemote reports whether u carries a URI scheme (an absolute, non-local reference).
func IsRemote(u string) bool {
	_, ok := schemeOf(u)
	return ok
}

// IsHTTP reports whether u is an http: URL.
func IsHTTP(u string) bool {
	s, ok := schemeOf(u)
	return ok && s == "http"
}

// IsHTTPS reports whether u is an https: URL.
func IsHTTPS(u string) bool {
	s, ok := schemeOf(u)
	return ok && s == "https"
}

// IsDataURL reports whether u is a data: URL.
func IsDataURL(u string) bool {
	s, ok := schemeOf(u)
	return ok && s == "data"
}

// IsFileURL reports whether u is a file: URL.
func IsFileURL(u string) bool {
	s, ok := schemeOf(u)
	return ok && s == "file"
}

// HasAbsolutePath reports whether p begins with a leading slash.
func HasAbsolutePath(p string) bool {
	return strings.HasPrefix(p, "/")
}

// HasParentDirectoryReference reports whether any path segment of p is "..".
func HasParentDirectoryReference(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// IsMalformedURL reports whether u fails to parse even loosely, or contains
// a percent-encoding sequence that cannot be decoded.
func IsMalformedURL(u string) bool {
	if _, err := url.Parse(u); err != nil {
		return true
	}
	if strings.Contains(u, "%") {
		if _, err := url.PathUnescape(stripFragment(u)); err != nil {
			return true
		}
	}
	return false
}

func stripFragment(u string) string {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i]
	}
	return u
}

// Parsed is the result of splitting a reference into resource and fragment.
type Parsed struct {
	Resource    string // percent-decoded, without fragment
	Fragment    string
	HasFragment bool
}

// ParseURL splits u into its resource part and fragment, percent-decoding
// the resource safely. Malformed input is returned unchanged rather than
// causing an error; callers run IsMalformedURL first when that distinction
// matters.
func ParseURL(u string) Parsed {
	resource := u
	fragment := ""
	hasFragment := false
	if i := strings.IndexByte(u, '#'); i >= 0 {
		resource = u[:i]
		fragment = u[i+1:]
		hasFragment = true
	}
	if decoded, err := url.PathUnescape(resource); err == nil {
		resource = decoded
	}
	return Parsed{Resource: resource, Fragment: fragment, HasFragment: hasFragment}
}

// resolveCache memoizes ResolveRelative results; the same (docDir, href, opfDir)
// triple recurs for every shared stylesheet/image/font link across a
// publication's content documents.
var resolveCache *lru.Cache

func init() {
	c, err := lru.New(4096)
	if err != nil {
		panic(err) // fixed capacity, only errs on size <= 0
	}
	resolveCache = c
}

// Resolved is the outcome of resolving a reference relative to the
// container root.
type Resolved struct {
	Path     string // NFC-normalized container path, no leading slash
	Fragment string
}

// ResolveRelative resolves href as written inside a document living in
// docDir (container-relative, no leading/trailing slash requirements),
// applying "." / ".." / empty-segment rules, and returns an NFC-normalized
// container path plus any fragment. opfDir is accepted for symmetry with
// the teacher's containerLeak helper but resolution itself only needs
// docDir; both are part of the cache key since callers may resolve the
// same href from different documents.
func ResolveRelative(docDir, href, opfDir string) Resolved {
	key := docDir + "\x00" + href + "\x00" + opfDir
	if v, ok := resolveCache.Get(key); ok {
		return v.(Resolved)
	}
	p := ParseURL(href)
	joined := p.Resource
	if !HasAbsolutePath(joined) {
		joined = path.Join(docDir, joined)
	} else {
		joined = strings.TrimPrefix(joined, "/")
	}
	joined = path.Clean(joined)
	if joined == "." {
		joined = ""
	}
	joined = norm.NFC.String(joined)
	out := Resolved{Path: joined, Fragment: p.Fragment}
	resolveCache.Add(key, out)
	return out
}

// ContainerLeak resolves href against two distinct synthetic bases of
// differing depth ("a/b" and "p/q/r") and reports a leak if either
// resolution does not remain under its own base, i.e. still carries a
// leading ".." segment after cleaning. Using two bases of different
// depth catches both shallow OPF directories (where a single ".."
// already escapes the container root) and deep ones (where it takes
// more ".." segments to escape but the same href must be rejected
// regardless of how deep the real OPF happens to live).
func ContainerLeak(href string) bool {
	for _, base := range []string{"a/b", "p/q/r"} {
		r := ResolveRelative(base, href, base)
		if HasAbsolutePath(r.Path) || r.Path == ".." || strings.HasPrefix(r.Path, "../") {
			return true
		}
	}
	return false
}
