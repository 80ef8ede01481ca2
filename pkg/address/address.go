package address

import (
	"strings"

	"github.com/pkg/errors"
)

const separator = "/"

// reservedChars delimit the tag predicate of a filter.
const reservedChars = "{},"

// Address is an immutable hierarchical metric address.
// The zero value is the root address.
type Address struct {
	segments []string
}

// Root is the address without any segment.
var Root = Address{}

// New returns an address consisting of the given segments.
// Segments must not be empty and must not contain the separator or any
// of "{", "}" and ",".
func New(segments ...string) (Address, error) {
	for _, s := range segments {
		if err := validateSegment(s); err != nil {
			return Root, err
		}
	}
	return Address{segments: append([]string(nil), segments...)}, nil
}

// Parse parses the string rendering of an address, e.g. "a/b/c".
// A leading separator is allowed. The empty string and "/" denote the
// root address.
func Parse(s string) (Address, error) {
	s = strings.TrimPrefix(s, separator)
	if s == "" {
		return Root, nil
	}
	a, err := New(strings.Split(s, separator)...)
	if err != nil {
		return Root, errors.Wrapf(err, "invalid address %q", s)
	}
	return a, nil
}

// MustParse is like Parse but panics on invalid input.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func validateSegment(s string) error {
	switch {
	case s == "":
		return errors.New("empty address segment")
	case strings.Contains(s, separator):
		return errors.Errorf("address segment %q contains %q", s, separator)
	case s == wildcardOne || s == wildcardMany:
		return errors.Errorf("address segment %q is reserved for filters", s)
	case strings.ContainsAny(s, reservedChars):
		return errors.Errorf("address segment %q contains one of %q", s, reservedChars)
	}
	return nil
}

// Child returns a new address with the segments of other appended.
func (a Address) Child(other Address) Address {
	if len(other.segments) == 0 {
		return a
	}
	if len(a.segments) == 0 {
		return other
	}
	segments := make([]string, 0, len(a.segments)+len(other.segments))
	segments = append(segments, a.segments...)
	segments = append(segments, other.segments...)
	return Address{segments: segments}
}

// Segments returns a copy of the address segments.
func (a Address) Segments() []string {
	return append([]string(nil), a.segments...)
}

// Len returns the number of segments.
func (a Address) Len() int {
	return len(a.segments)
}

// IsRoot returns true if the address has no segments.
func (a Address) IsRoot() bool {
	return len(a.segments) == 0
}

// HasPrefix reports whether prefix is an ancestor of or equal to a.
func (a Address) HasPrefix(prefix Address) bool {
	if len(prefix.segments) > len(a.segments) {
		return false
	}
	for i, s := range prefix.segments {
		if a.segments[i] != s {
			return false
		}
	}
	return true
}

// Equal reports whether both addresses have the same segments.
func (a Address) Equal(other Address) bool {
	return len(a.segments) == len(other.segments) && a.HasPrefix(other)
}

// String renders the address as "segment/segment/...".
// The root address renders as the empty string.
func (a Address) String() string {
	return strings.Join(a.segments, separator)
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
