/*
Package system assembles metric systems.

A live system consists of a ticker, an aggregator, a snapshot cell and
optional reporters. On every tick the aggregator collects and publishes
first, reporters are notified afterwards in the order they were added.

A dead system implements the same interface without doing any work. Use it
where metrics are disabled.
*/
package system
