// Package registry is the resource registry (C3): a dense lookup from
// container path to manifest metadata, a per-resource set of declared
// element IDs used for fragment validation, and a side table of SVG
// <symbol> IDs. It is owned exclusively by the orchestrator; the
// reference validator only ever reads from it.
package registry

import (
	"sort"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	memdb "github.com/hashicorp/go-memdb"
)

// Resource is one row of the registry: the accepted shape of a manifest
// item once the OPF engine has validated it, plus the IDs accumulated as
// content documents are scanned.
type Resource struct {
	URL              string // container path, as registered
	MimeType         string
	InSpine          bool
	HasCoreFallback  bool
	spineIndex       string // "y"/"n" shadow of InSpine, for the memdb string index
	mu               *sync.Mutex
	ids              map[string]struct{}
	svgSymbolIDs     map[string]struct{}
}

// HasID reports whether id was registered against this resource.
func (r *Resource) HasID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.ids[id]
	return ok
}

// IDs returns a sorted snapshot of the resource's declared IDs.
func (r *Resource) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasSVGSymbolID reports whether id was registered as an SVG <symbol> id.
func (r *Resource) HasSVGSymbolID(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.svgSymbolIDs[id]
	return ok
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"resource": {
			Name: "resource",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "URL"},
				},
				"mime": {
					Name:    "mime",
					Indexer: &memdb.StringFieldIndex{Field: "MimeType"},
				},
				"spine": {
					Name:    "spine",
					Indexer: &memdb.StringFieldIndex{Field: "spineIndex"},
				},
			},
		},
	},
}

// Registry is the orchestrator-owned store of Resource rows. Insertion
// order is preserved separately from the memdb table (whose iteration
// order is index-order, not insertion-order) because the "unreferenced
// manifest item" pass must iterate in manifest order.
type Registry struct {
	db     *memdb.MemDB
	paths  *iradix.Tree // secondary path-prefix index, for leak/disallowed-path scans
	order  []string
	seen   map[string]bool
}

// New creates an empty resource registry.
func New() *Registry {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		// schema is a fixed literal validated at init time; a failure here
		// means the schema itself is malformed, which is a programming error.
		panic(err)
	}
	return &Registry{
		db:    db,
		paths: iradix.New(),
		seen:  make(map[string]bool),
	}
}

// RegisterResource inserts a resource if not already present. Idempotent
// by container path: later calls only supplement IDs, they never
// overwrite mime/spine/fallback fields that the OPF engine already set.
func (reg *Registry) RegisterResource(url, mimeType string, inSpine, hasCoreFallback bool) *Resource {
	txn := reg.db.Txn(true)
	defer txn.Commit()

	if raw, err := txn.First("resource", "id", url); err == nil && raw != nil {
		return raw.(*Resource)
	}

	spineIdx := "n"
	if inSpine {
		spineIdx = "y"
	}
	r := &Resource{
		URL:             url,
		MimeType:        mimeType,
		InSpine:         inSpine,
		HasCoreFallback: hasCoreFallback,
		spineIndex:      spineIdx,
		mu:              &sync.Mutex{},
		ids:             make(map[string]struct{}),
		svgSymbolIDs:    make(map[string]struct{}),
	}
	if err := txn.Insert("resource", r); err != nil {
		panic(err)
	}
	reg.paths, _, _ = reg.paths.Insert([]byte(url), r)
	if !reg.seen[url] {
		reg.seen[url] = true
		reg.order = append(reg.order, url)
	}
	return r
}

// RegisterID records id as declared within the resource at path. A
// missing resource is a no-op: the content scanner only extends IDs for
// resources the OPF engine already accepted into the manifest.
func (reg *Registry) RegisterID(path, id string) {
	if r := reg.GetResource(path); r != nil {
		r.mu.Lock()
		r.ids[id] = struct{}{}
		r.mu.Unlock()
	}
}

// RegisterSVGSymbolID records id as an SVG <symbol> id declared within
// the resource at path.
func (reg *Registry) RegisterSVGSymbolID(path, id string) {
	if r := reg.GetResource(path); r != nil {
		r.mu.Lock()
		r.svgSymbolIDs[id] = struct{}{}
		r.mu.Unlock()
	}
}

// HasResource reports whether path is a registered resource.
func (reg *Registry) HasResource(path string) bool {
	return reg.GetResource(path) != nil
}

// GetResource returns the resource at path, or nil.
func (reg *Registry) GetResource(path string) *Resource {
	txn := reg.db.Txn(false)
	raw, err := txn.First("resource", "id", path)
	if err != nil || raw == nil {
		return nil
	}
	return raw.(*Resource)
}

// HasID reports whether id was declared in the resource at path.
func (reg *Registry) HasID(path, id string) bool {
	r := reg.GetResource(path)
	return r != nil && r.HasID(id)
}

// AllResources returns every registered resource in manifest insertion
// order, the order the "unreferenced manifest item" pass (§4.7) must
// iterate in to stay deterministic.
func (reg *Registry) AllResources() []*Resource {
	out := make([]*Resource, 0, len(reg.order))
	for _, path := range reg.order {
		if r := reg.GetResource(path); r != nil {
			out = append(out, r)
		}
	}
	return out
}

// ResourcesInSpine returns every registered resource with InSpine set,
// using the memdb spine index rather than a linear scan.
func (reg *Registry) ResourcesInSpine() []*Resource {
	txn := reg.db.Txn(false)
	it, err := txn.Get("resource", "spine", "y")
	if err != nil {
		return nil
	}
	var out []*Resource
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*Resource))
	}
	return out
}

// HasResourceUnderPrefix reports whether any registered resource's path
// begins with prefix, e.g. "META-INF/" for the PKG-025 check. Backed by
// the radix index rather than a scan over AllResources.
func (reg *Registry) HasResourceUnderPrefix(prefix string) bool {
	found := false
	reg.paths.Root().WalkPrefix([]byte(prefix), func(k []byte, v interface{}) bool {
		found = true
		return true // stop at first match
	})
	return found
}
