package address

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	wildcardOne  = "*"
	wildcardMany = "**"
)

// TagLookup gives read access to the tags of a metric.
type TagLookup interface {
	Get(key string) (string, bool)
}

// Filter selects metrics by address pattern and an optional tag predicate.
//
// Pattern segments are matched one by one. "*" matches exactly one segment,
// "**" matches zero or more segments, every other segment must match
// exactly. The tag predicate requires every listed tag to be present with
// the given value.
type Filter struct {
	pattern []string
	tags    map[string]string
}

// MatchAll matches every metric.
var MatchAll = Filter{pattern: []string{wildcardMany}}

// ParseFilter parses a filter expression like "a/*/c", "a/**" or
// "a/b{host=h1,region=eu}".
func ParseFilter(s string) (Filter, error) {
	expr := strings.TrimSpace(s)
	var tags map[string]string
	if i := strings.IndexByte(expr, '{'); i >= 0 {
		if !strings.HasSuffix(expr, "}") {
			return Filter{}, errors.Errorf("invalid filter %q: unterminated tag predicate", s)
		}
		var err error
		tags, err = parseTagPredicate(expr[i+1 : len(expr)-1])
		if err != nil {
			return Filter{}, errors.Wrapf(err, "invalid filter %q", s)
		}
		expr = expr[:i]
	}

	expr = strings.TrimPrefix(expr, separator)
	if expr == "" {
		return Filter{tags: tags}, nil
	}
	pattern := strings.Split(expr, separator)
	for _, p := range pattern {
		if p == "" {
			return Filter{}, errors.Errorf("invalid filter %q: empty segment", s)
		}
	}
	return Filter{pattern: pattern, tags: tags}, nil
}

// MustParseFilter is like ParseFilter but panics on invalid input.
func MustParseFilter(s string) Filter {
	f, err := ParseFilter(s)
	if err != nil {
		panic(err)
	}
	return f
}

func parseTagPredicate(s string) (map[string]string, error) {
	tags := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return tags, nil
	}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.Errorf("malformed tag %q", pair)
		}
		tags[k] = strings.TrimSpace(v)
	}
	return tags, nil
}

// ExactFilter returns a filter matching only the given address.
func ExactFilter(a Address) Filter {
	return Filter{pattern: a.Segments()}
}

// WithTags returns a copy of f that additionally requires the given tags.
func (f Filter) WithTags(tags map[string]string) Filter {
	merged := make(map[string]string, len(f.tags)+len(tags))
	for k, v := range f.tags {
		merged[k] = v
	}
	for k, v := range tags {
		merged[k] = v
	}
	return Filter{pattern: f.pattern, tags: merged}
}

// Matches reports whether the address and tags satisfy the filter.
// tags may be nil if the metric has no tags.
func (f Filter) Matches(a Address, tags TagLookup) bool {
	if !matchSegments(f.pattern, a.segments) {
		return false
	}
	for k, want := range f.tags {
		if tags == nil {
			return false
		}
		got, ok := tags.Get(k)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func matchSegments(pattern, segments []string) bool {
	for len(pattern) > 0 {
		switch p := pattern[0]; p {
		case wildcardMany:
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if matchSegments(rest, segments[i:]) {
					return true
				}
			}
			return false
		case wildcardOne:
			if len(segments) == 0 {
				return false
			}
		default:
			if len(segments) == 0 || segments[0] != p {
				return false
			}
		}
		pattern = pattern[1:]
		segments = segments[1:]
	}
	return len(segments) == 0
}

// String renders the filter in the syntax accepted by ParseFilter.
func (f Filter) String() string {
	s := strings.Join(f.pattern, separator)
	if len(f.tags) == 0 {
		return s
	}
	keys := make([]string, 0, len(f.tags))
	for k := range f.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+f.tags[k])
	}
	return s + "{" + strings.Join(pairs, ",") + "}"
}
