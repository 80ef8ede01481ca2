package metric

import "context"

// Contributor delivers the metrics compacted since its previous
// contribution.
type Contributor interface {
	// Flush returns the compacted metrics and resets the contributor's
	// state to the identity of each kind.
	Flush(ctx context.Context) (MetricMap, error)
}

// ContributorFunc adapts a function to a Contributor.
type ContributorFunc func(ctx context.Context) (MetricMap, error)

// Flush implements Contributor.
func (f ContributorFunc) Flush(ctx context.Context) (MetricMap, error) {
	return f(ctx)
}
