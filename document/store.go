// Package document implements KadeDB's document store: named collections
// of key -> Document, with an optional DocumentSchema, guarded by a
// single mutex per store.
package document

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/kadedb/kadedb/predicate"
	"github.com/kadedb/kadedb/row"
	"github.com/kadedb/kadedb/schema"
	"github.com/kadedb/kadedb/status"
)

type collection struct {
	schema *schema.DocumentSchema
	docs   map[string]row.Document
	// order preserves insertion order of keys for deterministic Query
	// output; map iteration order is not relied on.
	order []string
}

func (c *collection) recordNewKey(key string) {
	if _, ok := c.docs[key]; !ok {
		c.order = append(c.order, key)
	}
}

func (c *collection) removeKey(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// Store holds every collection created through it.
type Store struct {
	mu    sync.Mutex
	colls map[string]*collection
}

// New returns an empty Store.
func New() *Store {
	return &Store{colls: make(map[string]*collection)}
}

// CreateCollection registers name with an optional schema (nil means
// schemaless). A collision is AlreadyExists, distinct from Put's
// auto-create.
func (st *Store) CreateCollection(name string, s *schema.DocumentSchema) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.colls[name]; ok {
		return status.AlreadyExistsf("document: collection %q already exists", name)
	}
	var cs *schema.DocumentSchema
	if s != nil {
		cs = s.Clone()
	}
	st.colls[name] = &collection{schema: cs, docs: make(map[string]row.Document)}
	return nil
}

// DropCollection removes name and every document it owned.
func (st *Store) DropCollection(name string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.colls[name]; !ok {
		return status.NotFoundf("document: collection %q not found", name)
	}
	delete(st.colls, name)
	return nil
}

// ListCollections returns every collection name, sorted for deterministic
// output.
func (st *Store) ListCollections() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.colls))
	for name := range st.colls {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (st *Store) getOrCreate(name string) *collection {
	c, ok := st.colls[name]
	if !ok {
		c = &collection{docs: make(map[string]row.Document)}
		st.colls[name] = c
	}
	return c
}

// Put inserts or replaces key's document in name, auto-creating the
// collection if it doesn't yet exist.
// If the collection has a schema, doc is validated and uniqueness is
// re-checked across the prospective post-put set; on failure the
// collection is left unchanged.
func (st *Store) Put(name, key string, doc row.Document) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	c := st.getOrCreate(name)

	clone := row.DeepCopyDocument(doc)
	if c.schema != nil {
		if err := schema.ValidateDocument(c.schema, clone); err != nil {
			return status.InvalidArgumentf("document: %v", err)
		}
		prior, existed := c.docs[key]
		c.docs[key] = clone
		all := make([]row.Document, 0, len(c.docs))
		for _, d := range c.docs {
			all = append(all, d)
		}
		if err := schema.ValidateUniqueDocuments(c.schema, all, true); err != nil {
			if existed {
				c.docs[key] = prior
			} else {
				delete(c.docs, key)
			}
			return status.FailedPreconditionf("document: %v", err)
		}
		if !existed {
			c.order = append(c.order, key)
		}
		return nil
	}
	c.recordNewKey(key)
	c.docs[key] = clone
	return nil
}

// PutAuto is Put with a generated key (a random UUID), for callers that
// don't need a caller-chosen identity. Returns the minted key.
func (st *Store) PutAuto(name string, doc row.Document) (string, error) {
	key := uuid.NewString()
	if err := st.Put(name, key, doc); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns a deep clone of key's document in name.
func (st *Store) Get(name, key string) (row.Document, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.colls[name]
	if !ok {
		return nil, status.NotFoundf("document: collection %q not found", name)
	}
	d, ok := c.docs[key]
	if !ok {
		return nil, status.NotFoundf("document: key %q not found in %q", key, name)
	}
	return row.DeepCopyDocument(d), nil
}

// Erase removes key's document from name.
func (st *Store) Erase(name, key string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.colls[name]
	if !ok {
		return status.NotFoundf("document: collection %q not found", name)
	}
	if _, ok := c.docs[key]; !ok {
		return status.NotFoundf("document: key %q not found in %q", key, name)
	}
	delete(c.docs, key)
	c.removeKey(key)
	return nil
}

// Count returns the number of documents in name.
func (st *Store) Count(name string) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.colls[name]
	if !ok {
		return 0, status.NotFoundf("document: collection %q not found", name)
	}
	return len(c.docs), nil
}

// KeyValue pairs a document key with its (projected) document.
type KeyValue struct {
	Key string
	Doc row.Document
}

// Query filters name's documents by where (nil matches all) and projects
// fields (empty means the whole document). An unknown field in fields is
// InvalidArgument only when the collection has a schema. Results are
// returned in insertion order, deep-cloned.
func (st *Store) Query(name string, fields []string, where *predicate.DocPredicate) ([]KeyValue, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	c, ok := st.colls[name]
	if !ok {
		return nil, status.NotFoundf("document: collection %q not found", name)
	}
	if c.schema != nil {
		for _, f := range fields {
			if !c.schema.HasField(f) {
				return nil, status.InvalidArgumentf("document: unknown field %q", f)
			}
		}
	}

	var out []KeyValue
	for _, key := range c.order {
		d := c.docs[key]
		matched, err := predicate.EvalDoc(c.schema, d, where)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		if len(fields) == 0 {
			out = append(out, KeyValue{Key: key, Doc: row.DeepCopyDocument(d)})
			continue
		}
		proj := make(row.Document, len(fields))
		for _, f := range fields {
			if v, ok := d[f]; ok {
				proj[f] = v.Clone()
			}
		}
		out = append(out, KeyValue{Key: key, Doc: proj})
	}
	return out, nil
}
