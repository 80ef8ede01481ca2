package metric

import (
	"testing"

	"github.com/guxg/colossus/pkg/address"
	"gotest.tools/v3/assert"
)

func entry(addr string, tags TagMap, v Value) Entry {
	return Entry{Address: address.MustParse(addr), Tags: tags, Value: v}
}

func Test_Builder_MergeByKind(t *testing.T) {
	t.Parallel()

	// SETUP
	b := NewBuilder()

	// EXERCISE
	assert.NilError(t, b.Merge(entry("a", NoTags, CounterValue(1))))
	assert.NilError(t, b.Merge(entry("a", NoTags, CounterValue(2))))
	assert.NilError(t, b.Merge(entry("g", NoTags, GaugeValue(1))))
	assert.NilError(t, b.Merge(entry("g", NoTags, GaugeValue(9))))
	assert.NilError(t, b.Merge(entry("a", Tags("k", "v"), CounterValue(5))))
	err := b.Merge(entry("a", NoTags, GaugeValue(3)))
	m := b.Build()

	// VERIFY
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.Equal(t, m.Len(), 3)
	v, ok := m.Get(address.MustParse("a"), NoTags)
	assert.Assert(t, ok)
	assert.Equal(t, v, Value(CounterValue(3)))
	v, _ = m.Get(address.MustParse("a"), Tags("k", "v"))
	assert.Equal(t, v, Value(CounterValue(5)))
	v, _ = m.Get(address.MustParse("g"), NoTags)
	assert.Equal(t, v, Value(GaugeValue(9)))
}

func Test_MetricMap_FilterDoesNotModifyOriginal(t *testing.T) {
	t.Parallel()

	// SETUP
	b := NewBuilder()
	b.Put(entry("a/b", NoTags, CounterValue(1)))
	b.Put(entry("a/c", NoTags, CounterValue(2)))
	b.Put(entry("x", NoTags, CounterValue(3)))
	m := b.Build()

	// EXERCISE
	filtered := m.Filter(func(e Entry) bool {
		return e.Address.HasPrefix(address.MustParse("a"))
	})

	// VERIFY
	assert.Equal(t, filtered.Len(), 2)
	assert.Equal(t, m.Len(), 3)
}

func Test_MetricMap_EntriesSorted(t *testing.T) {
	t.Parallel()

	// SETUP
	b := NewBuilder()
	b.Put(entry("b", NoTags, CounterValue(1)))
	b.Put(entry("a", Tags("x", "2"), CounterValue(2)))
	b.Put(entry("a", Tags("x", "1"), CounterValue(3)))
	b.Put(entry("a", NoTags, CounterValue(4)))
	m := b.Build()

	// EXERCISE
	entries := m.Entries()

	// VERIFY
	var rendered []string
	for _, e := range entries {
		rendered = append(rendered, e.Address.String()+"{"+e.Tags.String()+"}")
	}
	assert.DeepEqual(t, rendered, []string{"a{}", "a{x=1}", "a{x=2}", "b{}"})
}

func Test_MetricMap_ZeroValueIsEmpty(t *testing.T) {
	t.Parallel()

	// SETUP
	var m MetricMap

	// EXERCISE
	_, ok := m.Get(address.Root, NoTags)

	// VERIFY
	assert.Assert(t, !ok)
	assert.Equal(t, m.Len(), 0)
	assert.Equal(t, len(m.Entries()), 0)
}

func Test_NewKey_TagsAreUnambiguous(t *testing.T) {
	t.Parallel()

	// SETUP
	a := address.MustParse("a")

	// EXERCISE
	k1 := NewKey(a, Tags("x", "1,y=2"))
	k2 := NewKey(a, Tags("x", "1", "y", "2"))

	// VERIFY
	assert.Assert(t, k1 != k2)
}
