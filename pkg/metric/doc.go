/*
Package metric contains the data model shared by all pipeline stages:
metric kinds and events, tags, per-kind accumulators, compacted values and
the immutable MetricMap.

Merge rules per kind:

  - counter: deltas are summed, an idle counter reports zero
  - rate: hits are summed, an idle rate reports zero hits
  - histogram: bucket counts are summed, bounds must be identical
  - gauge: the later writer wins, the last value is carried across ticks
*/
package metric
