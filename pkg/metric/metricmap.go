package metric

import (
	"sort"
	"strings"

	"github.com/guxg/colossus/pkg/address"
)

// Key identifies a metric by full address and tags.
// Keys are comparable and can be used as map keys.
type Key struct {
	address string
	tags    string
}

// NewKey returns the key for the given address and tags.
func NewKey(a address.Address, tags TagMap) Key {
	if tags.IsEmpty() {
		return Key{address: a.String()}
	}
	var b strings.Builder
	for _, tag := range tags.tags {
		b.WriteString(tag.Key)
		b.WriteByte(0x1f)
		b.WriteString(tag.Value)
		b.WriteByte(0x1e)
	}
	return Key{address: a.String(), tags: b.String()}
}

// Entry is a single metric of a MetricMap.
type Entry struct {
	Address address.Address
	Tags    TagMap
	Value   Value
}

// Key returns the key of the entry.
func (e Entry) Key() Key {
	return NewKey(e.Address, e.Tags)
}

// MetricMap is an immutable mapping from metric key to compacted value.
// The zero value is an empty map. MetricMaps are safe for concurrent use
// without synchronization because they are never modified after Build.
type MetricMap struct {
	entries map[Key]Entry
}

// EmptyMap is the MetricMap without entries.
var EmptyMap = MetricMap{}

// Len returns the number of entries.
func (m MetricMap) Len() int {
	return len(m.entries)
}

// Get returns the value for the given address and tags.
func (m MetricMap) Get(a address.Address, tags TagMap) (Value, bool) {
	e, ok := m.entries[NewKey(a, tags)]
	if !ok {
		return nil, false
	}
	return e.Value, true
}

// Lookup returns the entry with the given key.
func (m MetricMap) Lookup(k Key) (Entry, bool) {
	e, ok := m.entries[k]
	return e, ok
}

// Range calls fn for every entry in unspecified order until fn returns
// false.
func (m MetricMap) Range(fn func(Entry) bool) {
	for _, e := range m.entries {
		if !fn(e) {
			return
		}
	}
}

// Entries returns all entries sorted by address and tags.
func (m MetricMap) Entries() []Entry {
	keys := make([]Key, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].address != keys[j].address {
			return keys[i].address < keys[j].address
		}
		return keys[i].tags < keys[j].tags
	})
	result := make([]Entry, len(keys))
	for i, k := range keys {
		result[i] = m.entries[k]
	}
	return result
}

// Filter returns a new MetricMap with the entries for which keep returns
// true. m is not modified.
func (m MetricMap) Filter(keep func(Entry) bool) MetricMap {
	b := NewBuilder()
	for k, e := range m.entries {
		if keep(e) {
			b.entries[k] = e
		}
	}
	return b.Build()
}

// Builder collects entries for a new MetricMap.
// A Builder must not be used concurrently and not after Build.
type Builder struct {
	entries map[Key]Entry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: map[Key]Entry{}}
}

// Put sets the entry for the key of e, replacing any existing entry.
func (b *Builder) Put(e Entry) {
	b.entries[e.Key()] = e
}

// Merge merges e into the entry with the same key using the merge rule of
// the value kind. On error the builder is unchanged.
func (b *Builder) Merge(e Entry) error {
	k := e.Key()
	existing, ok := b.entries[k]
	if !ok {
		b.entries[k] = e
		return nil
	}
	merged, err := existing.Value.Merge(e.Value)
	if err != nil {
		return err
	}
	existing.Value = merged
	b.entries[k] = existing
	return nil
}

// Lookup returns the entry currently stored for k.
func (b *Builder) Lookup(k Key) (Entry, bool) {
	e, ok := b.entries[k]
	return e, ok
}

// Len returns the number of entries collected so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build returns the MetricMap. The builder must not be used afterwards.
func (b *Builder) Build() MetricMap {
	entries := b.entries
	b.entries = nil
	if len(entries) == 0 {
		return EmptyMap
	}
	return MetricMap{entries: entries}
}
