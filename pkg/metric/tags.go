package metric

import (
	"sort"
	"strings"
)

// Tag is a single key/value pair of a TagMap.
type Tag struct {
	Key   string
	Value string
}

// TagMap is an immutable set of tags attached to a metric.
// The zero value is the empty TagMap ("no tags").
type TagMap struct {
	tags []Tag // sorted by key, unique keys
}

// NoTags is the empty TagMap.
var NoTags = TagMap{}

// NewTagMap copies the given map into a new TagMap.
func NewTagMap(m map[string]string) TagMap {
	if len(m) == 0 {
		return NoTags
	}
	tags := make([]Tag, 0, len(m))
	for k, v := range m {
		tags = append(tags, Tag{Key: k, Value: v})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })
	return TagMap{tags: tags}
}

// Tags builds a TagMap from alternating keys and values.
// A trailing key without value is ignored.
func Tags(kvs ...string) TagMap {
	m := make(map[string]string, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		m[kvs[i]] = kvs[i+1]
	}
	return NewTagMap(m)
}

// Len returns the number of tags.
func (t TagMap) Len() int {
	return len(t.tags)
}

// IsEmpty reports whether t is the empty TagMap.
func (t TagMap) IsEmpty() bool {
	return len(t.tags) == 0
}

// Get returns the value of the tag with the given key.
func (t TagMap) Get(key string) (string, bool) {
	i := sort.Search(len(t.tags), func(i int) bool { return t.tags[i].Key >= key })
	if i < len(t.tags) && t.tags[i].Key == key {
		return t.tags[i].Value, true
	}
	return "", false
}

// Merge returns a TagMap with the tags of t and other.
// On conflicting keys the value of other wins.
func (t TagMap) Merge(other TagMap) TagMap {
	if other.IsEmpty() {
		return t
	}
	if t.IsEmpty() {
		return other
	}
	m := t.Map()
	for _, tag := range other.tags {
		m[tag.Key] = tag.Value
	}
	return NewTagMap(m)
}

// Map returns the tags as a new map.
func (t TagMap) Map() map[string]string {
	m := make(map[string]string, len(t.tags))
	for _, tag := range t.tags {
		m[tag.Key] = tag.Value
	}
	return m
}

// Slice returns a copy of the tags sorted by key.
func (t TagMap) Slice() []Tag {
	return append([]Tag(nil), t.tags...)
}

// String renders the tags canonically as "k1=v1,k2=v2".
func (t TagMap) String() string {
	var b strings.Builder
	for i, tag := range t.tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tag.Key)
		b.WriteByte('=')
		b.WriteString(tag.Value)
	}
	return b.String()
}
