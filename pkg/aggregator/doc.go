/*
Package aggregator merges the contributions of all collectors of a metric
system once per tick and publishes the result.

Per tick the aggregator pulls every registered contributor concurrently,
bounded by the collection timeout. A result arriving after the timeout is
carried over to the next tick. Carried results are merged first, then the
contributions of the tick in registration order, then submitted
contributions in submission order:

	counter    deltas are summed
	rate       hits are summed
	histogram  bucket counts are summed, bounds must be identical
	gauge      the last contribution wins; the value is carried to later
	           snapshots until it is set again

A contribution that conflicts with the established kind or histogram bounds
of one of its metrics is dropped as a whole.
*/
package aggregator

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/guxg/colossus/pkg/metric Contributor
