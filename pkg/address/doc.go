// Package address implements hierarchical metric addresses and filters over
// them.
//
// An address is an ordered list of path segments rendered as
// "segment/segment/...". Every metric system has a root address (its
// namespace) and every recorded metric lives below it.
//
// Filters select metrics by address pattern and tags:
//
//	a/b/c          exact match
//	a/*/c          "*" matches exactly one segment
//	a/**           "**" matches zero or more segments
//	a/**{host=h1}  additionally requires tag host=h1
package address
